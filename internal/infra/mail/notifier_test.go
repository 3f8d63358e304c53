package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/money"
)

type captureSender struct {
	sent []*gomail.Msg
	err  error
}

func (s *captureSender) DialAndSendWithContext(_ context.Context, msgs ...*gomail.Msg) error {
	s.sent = append(s.sent, msgs...)
	return s.err
}

func confirmed(email string) reservations.StatusChanged {
	return reservations.StatusChanged{
		ReservationID: "r1",
		ListingID:     "l1",
		ListingTitle:  "Loft near the canal",
		Tenant:        reservations.TenantSnapshot{Name: "Ada Lovelace", Email: email},
		From:          reservations.StatusReserved,
		To:            reservations.StatusConfirmed,
		Total:         money.Money{Amount: 120000, Currency: "EUR"},
		At:            time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifySendsComposedMessage(t *testing.T) {
	sender := &captureSender{}
	n := &Notifier{Sender: sender, From: "desk@rentdesk.test"}

	require.NoError(t, n.Notify(context.Background(), confirmed("ada@example.com")))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	require.Len(t, msg.GetToString(), 1)
	assert.Contains(t, msg.GetToString()[0], "<ada@example.com>")
	assert.Equal(t, []string{"Reservation update - Loft near the canal"}, msg.GetGenHeader(gomail.HeaderSubject))
}

func TestNotifySkipsEventsWithoutRecipient(t *testing.T) {
	sender := &captureSender{}
	n := &Notifier{Sender: sender, From: "desk@rentdesk.test"}

	require.NoError(t, n.Notify(context.Background(), confirmed("")))
	assert.Empty(t, sender.sent)
}

func TestNotifyReturnsSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("connection refused")}
	n := &Notifier{Sender: sender, From: "desk@rentdesk.test"}

	err := n.Notify(context.Background(), confirmed("ada@example.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New(Options{}, nil)
	assert.Error(t, err)

	n, err := New(Options{Host: "smtp.example.com", Username: "u", Password: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "no-reply@rentdesk.local", n.From)
}
