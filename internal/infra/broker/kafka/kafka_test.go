package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/infra/outbox"
)

func TestProducerPublishesHeaders(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "reservation.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("missing content-type header")
		}
		return nil
	})
	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "reservation.events.v1", "r-1", []byte(`{}`), map[string]string{"content-type": outbox.ContentType})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

type memoryInbox struct {
	seen      map[string]bool
	handled   []string
	forgotten []string
}

func (m *memoryInbox) Seen(ctx context.Context, id string) (bool, error) {
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memoryInbox) Done(ctx context.Context, id string) error {
	m.handled = append(m.handled, id)
	return nil
}

func (m *memoryInbox) Forget(ctx context.Context, id string) error {
	delete(m.seen, id)
	m.forgotten = append(m.forgotten, id)
	return nil
}

func wrapped(t *testing.T, id string) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := outbox.Wrap(appoutbox.EventRecord{
		ID:         id,
		Name:       "reservation.created",
		Payload:    []byte(`{"reservation_id":"r-1"}`),
		OccurredAt: time.Now(),
		Aggregate:  "r-1",
	}, "test")
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "reservation.events.v1", Value: raw}
}

func TestEventHandlerDeliversOnce(t *testing.T) {
	inbox := &memoryInbox{seen: map[string]bool{}}
	var got []string
	h := &EventHandler{Inbox: inbox, Deliver: func(ctx context.Context, rec appoutbox.EventRecord) error {
		got = append(got, rec.Name)
		return nil
	}}

	require.NoError(t, h.Handle(context.Background(), wrapped(t, "evt-1")))
	require.NoError(t, h.Handle(context.Background(), wrapped(t, "evt-1")))
	assert.Equal(t, []string{"reservation.created"}, got)
	assert.Equal(t, []string{"evt-1"}, inbox.handled)
}

func TestEventHandlerReleasesFailedEvent(t *testing.T) {
	inbox := &memoryInbox{seen: map[string]bool{}}
	calls := 0
	h := &EventHandler{Inbox: inbox, Attempts: 2, Deliver: func(ctx context.Context, rec appoutbox.EventRecord) error {
		calls++
		return errors.New("smtp down")
	}}

	err := h.Handle(context.Background(), wrapped(t, "evt-1"))
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"evt-1"}, inbox.forgotten)
	assert.Empty(t, inbox.handled)
}

func TestEventHandlerSkipsMalformed(t *testing.T) {
	h := &EventHandler{Deliver: func(ctx context.Context, rec appoutbox.EventRecord) error {
		t.Fatal("must not deliver")
		return nil
	}}
	assert.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("garbage")}))
}
