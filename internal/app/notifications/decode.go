package notifications

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"rentdesk/internal/app/outbox"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/events"
)

var ErrUnknownEvent = errors.New("notifications: unknown event")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode restores the domain event carried by an outbox record.
func Decode(rec outbox.EventRecord) (events.DomainEvent, error) {
	switch rec.Name {
	case reservations.EventCreated:
		var ev reservations.ReservationCreated
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return nil, fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		return ev, nil
	case reservations.EventStatusChanged:
		var ev reservations.StatusChanged
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return nil, fmt.Errorf("notifications: decode %s: %w", rec.Name, err)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, rec.Name)
}
