package outbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the Mongo outbox into the broker, one record per tick until nothing is due.
type Worker struct {
	Store       *Store
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger().ErrorContext(ctx, "outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain publishes due records until none is left. Publish failures are rescheduled, store
// failures abort the pass.
func (w *Worker) Drain(ctx context.Context) error {
	for ctx.Err() == nil {
		done, err := w.processOnce(ctx)
		if err != nil || done {
			return err
		}
	}
	return ctx.Err()
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return true, err
	}
	payload, err := Wrap(doc.Record(), w.source())
	if err != nil {
		return false, w.fail(ctx, doc, err)
	}
	headers := map[string]string{"content-type": ContentType, "ce_type": doc.Name + ".v1"}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	if err := w.Producer.Publish(ctx, w.TopicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		return false, w.fail(ctx, doc, err)
	}
	return false, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) error {
	next := w.nextRetry(doc.Attempts)
	w.logger().WarnContext(ctx, "outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "retry_at", next, "error", cause)
	return w.Store.MarkFailed(ctx, doc.ID, next, cause.Error())
}

// TopicFor maps "reservation.created" to "<prefix>reservation.events.v1".
func (w *Worker) TopicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://rentdesk"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
