package notifications

import (
	"context"
	"errors"
	"log/slog"

	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/domain/shared/events"
)

// Dispatcher turns outbox records back into events and hands them to the notifier.
type Dispatcher struct {
	Notifier policies.Notifier
	Logger   *slog.Logger
}

// Deliver returns the notifier error so transports can retry. Records it cannot decode are
// skipped.
func (d *Dispatcher) Deliver(ctx context.Context, rec outbox.EventRecord) error {
	ev, err := Decode(rec)
	if errors.Is(err, ErrUnknownEvent) {
		d.logger().DebugContext(ctx, "notification skipped", "event", rec.Name, "event_id", rec.ID)
		return nil
	}
	if err != nil {
		d.logger().WarnContext(ctx, "notification dropped", "event", rec.Name, "event_id", rec.ID, "error", err)
		return nil
	}
	if d.Notifier == nil {
		return nil
	}
	if err := d.Notifier.Notify(ctx, ev); err != nil {
		d.logger().WarnContext(ctx, "notification failed", "event", rec.Name, "aggregate", rec.Aggregate, "error", err)
		return err
	}
	return nil
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// LogNotifier records the email it would have sent. It is used when SMTP is not configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, ev events.DomainEvent) error {
	msg, ok := Compose(ev)
	if !ok {
		return nil
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "event", ev.EventName(), "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ policies.Notifier = LogNotifier{}
