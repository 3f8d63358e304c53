package reservations

import (
	"time"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/money"
)

const (
	EventCreated       = "reservation.created"
	EventStatusChanged = "reservation.status_changed"
)

type ReservationCreated struct {
	ReservationID ID                 `json:"reservation_id"`
	ListingID     listings.ListingID `json:"listing_id"`
	ListingTitle  string             `json:"listing_title"`
	TenantID      profiles.TenantID  `json:"tenant_id,omitempty"`
	Tenant        TenantSnapshot     `json:"tenant"`
	Start         time.Time          `json:"start_date"`
	End           time.Time          `json:"end_date"`
	Total         money.Money        `json:"total"`
	Status        Status             `json:"status"`
	At            time.Time          `json:"occurred_at"`
}

func (e ReservationCreated) EventName() string     { return EventCreated }
func (e ReservationCreated) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }

type StatusChanged struct {
	ReservationID ID                 `json:"reservation_id"`
	ListingID     listings.ListingID `json:"listing_id"`
	ListingTitle  string             `json:"listing_title"`
	TenantID      profiles.TenantID  `json:"tenant_id,omitempty"`
	Tenant        TenantSnapshot     `json:"tenant"`
	From          Status             `json:"from"`
	To            Status             `json:"to"`
	Total         money.Money        `json:"total"`
	At            time.Time          `json:"occurred_at"`
}

func (e StatusChanged) EventName() string     { return EventStatusChanged }
func (e StatusChanged) AggregateID() string   { return string(e.ReservationID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }
