package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/domain/shared/money"
)

func created() reservations.ReservationCreated {
	return reservations.ReservationCreated{
		ReservationID: "r-1",
		ListingID:     "l-1",
		ListingTitle:  "Canal loft",
		Tenant:        reservations.TenantSnapshot{Name: "Ada", Email: "ada@example.com"},
		Start:         time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2030, 4, 10, 0, 0, 0, 0, time.UTC),
		Total:         money.Must(90000, "EUR"),
		Status:        reservations.StatusReserved,
		At:            time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestComposeCreated(t *testing.T) {
	msg, ok := Compose(created())
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Reservation received - Canal loft", msg.Subject)
	assert.Contains(t, msg.Body, "- From: 01/04/2030")
	assert.Contains(t, msg.Body, "- To: 10/04/2030")
	assert.Contains(t, msg.Body, "- Total: 900.00 EUR")
	assert.Contains(t, msg.Body, "- Status: Reserved")
}

func TestComposeStatusChanged(t *testing.T) {
	msg, ok := Compose(reservations.StatusChanged{
		ReservationID: "r-1",
		ListingTitle:  "Canal loft",
		Tenant:        reservations.TenantSnapshot{Name: "Ada", Email: "ada@example.com"},
		From:          reservations.StatusReserved,
		To:            reservations.StatusConfirmed,
	})
	require.True(t, ok)
	assert.Equal(t, "Reservation update - Canal loft", msg.Subject)
	assert.Contains(t, msg.Body, "New status: Confirmed")
	assert.Contains(t, msg.Body, "Your reservation is now confirmed!")

	_, ok = Compose(reservations.StatusChanged{To: reservations.StatusPaid})
	assert.False(t, ok, "no recipient")
}

func TestDispatcherDecodesOutboxRecords(t *testing.T) {
	var got []events.DomainEvent
	d := &Dispatcher{Notifier: policies.NotifierFunc(func(_ context.Context, ev events.DomainEvent) error {
		got = append(got, ev)
		return nil
	})}
	rec, err := outbox.JSONEventEncoder{}.Encode(created())
	require.NoError(t, err)
	assert.Contains(t, string(rec.Payload), `"tenant":{"name":"Ada","email":"ada@example.com","phone":""}`)

	require.NoError(t, d.Deliver(context.Background(), rec))
	require.Len(t, got, 1)
	ev, ok := got[0].(reservations.ReservationCreated)
	require.True(t, ok)
	assert.Equal(t, reservations.ID("r-1"), ev.ReservationID)
	assert.Equal(t, "ada@example.com", ev.Tenant.Email)
	assert.Equal(t, int64(90000), ev.Total.Amount)
	assert.True(t, created().Start.Equal(ev.Start))

	require.NoError(t, d.Deliver(context.Background(), outbox.EventRecord{Name: "listings.renamed"}))
	require.NoError(t, d.Deliver(context.Background(), outbox.EventRecord{Name: reservations.EventCreated, Payload: []byte("{")}))
	assert.Len(t, got, 1)
}

func TestDispatcherReturnsNotifierErrors(t *testing.T) {
	boom := errors.New("smtp down")
	d := &Dispatcher{Notifier: policies.NotifierFunc(func(context.Context, events.DomainEvent) error { return boom })}
	rec, err := outbox.JSONEventEncoder{}.Encode(created())
	require.NoError(t, err)
	assert.ErrorIs(t, d.Deliver(context.Background(), rec), boom)
}
