package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentdesk/internal/app/outbox"
)

func TestWrapUnwrap(t *testing.T) {
	rec := appoutbox.EventRecord{
		ID:         "evt-1",
		Name:       "reservation.created",
		Payload:    []byte(`{"reservation_id":"r-1"}`),
		OccurredAt: time.Date(2030, 4, 1, 10, 0, 0, 0, time.UTC),
		Aggregate:  "r-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
	raw, err := Wrap(rec, "app://rentdesk")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"reservation.created.v1"`)
	assert.Contains(t, string(raw), `"specversion":"1.0"`)

	got, err := Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Aggregate, got.Aggregate)
	assert.True(t, rec.OccurredAt.Equal(got.OccurredAt))
	assert.JSONEq(t, string(rec.Payload), string(got.Payload))
	assert.Equal(t, "00-abc-def-01", got.Headers["traceparent"])
}

func TestWrapRejectsNonJSON(t *testing.T) {
	_, err := Wrap(appoutbox.EventRecord{ID: "evt-1", Name: "x", Payload: []byte("nope")}, "")
	assert.Error(t, err)
}

func TestUnwrapRequiresIdentity(t *testing.T) {
	_, err := Unwrap([]byte(`{"specversion":"1.0","data":{}}`))
	assert.Error(t, err)
}

func TestTopicFor(t *testing.T) {
	w := &Worker{TopicPrefix: "dev."}
	assert.Equal(t, "dev.reservation.events.v1", w.TopicFor("reservation.status_changed"))
	w.TopicPrefix = ""
	assert.Equal(t, "listing.events.v1", w.TopicFor("listing"))
}

func TestNextRetryUsesBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}
	before := time.Now()
	assert.WithinDuration(t, before.Add(time.Second), w.nextRetry(0), time.Second)
	assert.WithinDuration(t, before.Add(time.Minute), w.nextRetry(5), time.Second)
}

func TestNewEventDocumentStartsNew(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := newEventDocument(appoutbox.EventRecord{ID: "evt-1", Name: "reservation.created"}, now)
	assert.Equal(t, stateNew, doc.State)
	assert.Equal(t, now, doc.NextAttempt)
	assert.Equal(t, "evt-1", doc.Record().ID)
}
