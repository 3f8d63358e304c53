package notifications

import (
	"fmt"
	"strings"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/events"
)

const displayDate = "02/01/2006"

// Message is an email addressed to the tenant of a reservation.
type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
}

var statusLabels = map[reservations.Status]string{
	reservations.StatusReserved:  "Reserved",
	reservations.StatusConfirmed: "Confirmed",
	reservations.StatusPaid:      "Paid",
	reservations.StatusCancelled: "Cancelled",
	reservations.StatusCompleted: "Completed",
}

var statusNotes = map[reservations.Status]string{
	reservations.StatusConfirmed: "Your reservation is now confirmed!",
	reservations.StatusPaid:      "Your payment has been received.",
	reservations.StatusCancelled: "Your reservation has been cancelled.",
}

// Compose renders the email for ev. The second result is false for events nobody is told about.
func Compose(ev events.DomainEvent) (Message, bool) {
	switch e := ev.(type) {
	case reservations.ReservationCreated:
		var b strings.Builder
		fmt.Fprintf(&b, "Hello %s,\n\n", e.Tenant.Name)
		fmt.Fprintf(&b, "Your reservation for %q has been recorded.\n\n", e.ListingTitle)
		fmt.Fprintf(&b, "- From: %s\n", e.Start.Format(displayDate))
		fmt.Fprintf(&b, "- To: %s\n", e.End.Format(displayDate))
		fmt.Fprintf(&b, "- Total: %s\n", e.Total.String())
		fmt.Fprintf(&b, "- Status: %s\n\n", statusLabels[e.Status])
		b.WriteString("You will hear from us again once the owner confirms your reservation.\n")
		return Message{
			To:      e.Tenant.Email,
			Name:    e.Tenant.Name,
			Subject: "Reservation received - " + e.ListingTitle,
			Body:    b.String(),
		}, e.Tenant.Email != ""
	case reservations.StatusChanged:
		var b strings.Builder
		fmt.Fprintf(&b, "Hello %s,\n\n", e.Tenant.Name)
		fmt.Fprintf(&b, "The status of your reservation for %q was updated.\n\n", e.ListingTitle)
		fmt.Fprintf(&b, "New status: %s\n", statusLabels[e.To])
		if note, ok := statusNotes[e.To]; ok {
			fmt.Fprintf(&b, "\n%s\n", note)
		}
		return Message{
			To:      e.Tenant.Email,
			Name:    e.Tenant.Name,
			Subject: "Reservation update - " + e.ListingTitle,
			Body:    b.String(),
		}, e.Tenant.Email != ""
	}
	return Message{}, false
}
