package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"rentdesk/internal/domain/shared/events"
)

var json = jsoniter.ConfigFastest

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox accepts encoded events of a committed unit of work.
type Outbox interface {
	Append(ctx context.Context, records ...EventRecord) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// EncodeAll encodes events in order.
func EncodeAll(encoder EventEncoder, evs []events.DomainEvent) ([]EventRecord, error) {
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	records := make([]EventRecord, 0, len(evs))
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Buffer holds the events recorded while a command runs. They are published only after
// the command's unit of work committed.
type Buffer struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (b *Buffer) Add(evs ...events.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range evs {
		if ev != nil {
			b.events = append(b.events, ev)
		}
	}
}

func (b *Buffer) Events() []events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.DomainEvent, len(b.events))
	copy(out, b.events)
	return out
}

type bufferKey struct{}

// WithBuffer returns a context carrying a fresh event buffer.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	buf := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, buf), buf
}

// RecordDomainEvents drains the recorder into the buffer of ctx. Without a buffer the events
// are dropped.
func RecordDomainEvents(ctx context.Context, recorders ...interface{ Drain() []events.DomainEvent }) {
	buf, _ := ctx.Value(bufferKey{}).(*Buffer)
	for _, r := range recorders {
		evs := r.Drain()
		if buf != nil {
			buf.Add(evs...)
		}
	}
}
