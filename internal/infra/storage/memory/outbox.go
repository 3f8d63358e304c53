package memory

import (
	"context"
	"sync"

	appoutbox "rentdesk/internal/app/outbox"
)

// Outbox hands records to Deliver as soon as they are appended and keeps the last ones for
// inspection. It stands in for the Mongo outbox when no broker is configured.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	keep    int
	deliver func(ctx context.Context, rec appoutbox.EventRecord) error
}

func NewOutbox(keep int, deliver func(ctx context.Context, rec appoutbox.EventRecord) error) *Outbox {
	return &Outbox{keep: keep, deliver: deliver}
}

func (o *Outbox) Append(ctx context.Context, records ...appoutbox.EventRecord) error {
	o.mu.Lock()
	o.records = append(o.records, records...)
	if o.keep > 0 && len(o.records) > o.keep {
		o.records = append([]appoutbox.EventRecord(nil), o.records[len(o.records)-o.keep:]...)
	}
	o.mu.Unlock()
	if o.deliver == nil {
		return nil
	}
	var firstErr error
	for _, rec := range records {
		if err := o.deliver(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Records returns the retained records, oldest first.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
