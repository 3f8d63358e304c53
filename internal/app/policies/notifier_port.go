package policies

import (
	"context"

	"rentdesk/internal/domain/shared/events"
)

// Notifier delivers reservation events to people. Callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, event events.DomainEvent) error
}

type NotifierFunc func(ctx context.Context, event events.DomainEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event events.DomainEvent) error {
	return f(ctx, event)
}
