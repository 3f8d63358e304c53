package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/infra/outbox"
)

// Deduper records handled event ids.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Done(ctx context.Context, eventID string) error
	Forget(ctx context.Context, eventID string) error
}

// EventHandler unwraps outbox CloudEvents and hands each event to Deliver once. A failed
// delivery is retried in place with backoff and then released for redelivery.
type EventHandler struct {
	Inbox    Deduper
	Deliver  func(ctx context.Context, rec appoutbox.EventRecord) error
	Logger   *slog.Logger
	Attempts int
	Backoff  time.Duration
}

func (h *EventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	rec, err := outbox.Unwrap(msg.Value)
	if err != nil {
		h.logger().WarnContext(ctx, "skipping malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, rec.ID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().DebugContext(ctx, "duplicate event", "event_id", rec.ID)
			return nil
		}
	}
	if err := h.deliver(ctx, rec); err != nil {
		if h.Inbox != nil {
			if forgetErr := h.Inbox.Forget(ctx, rec.ID); forgetErr != nil {
				h.logger().ErrorContext(ctx, "inbox release failed", "event_id", rec.ID, "error", forgetErr)
			}
		}
		return err
	}
	if h.Inbox != nil {
		if err := h.Inbox.Done(ctx, rec.ID); err != nil {
			h.logger().WarnContext(ctx, "inbox mark failed", "event_id", rec.ID, "error", err)
		}
	}
	return nil
}

func (h *EventHandler) deliver(ctx context.Context, rec appoutbox.EventRecord) error {
	attempts := max(h.Attempts, 1)
	var err error
	for i := range attempts {
		if err = h.Deliver(ctx, rec); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.Backoff << i):
		}
	}
	return err
}

func (h *EventHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*EventHandler)(nil)
