package reservations

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/domain/shared/money"
)

// DaysPerMonth converts a monthly rent into a daily rate.
const DaysPerMonth = 30

var (
	ErrStartInPast       = apperr.New(apperr.ErrValidation, "reservations: start date is in the past")
	ErrTenantName        = apperr.New(apperr.ErrValidation, "reservations: tenant name is required")
	ErrTenantEmail       = apperr.New(apperr.ErrValidation, "reservations: tenant email is invalid")
	ErrListingRequired   = apperr.New(apperr.ErrValidation, "reservations: listing is required")
	ErrDatesUnavailable  = apperr.New(apperr.ErrValidation, "reservations: listing is not available for these dates")
	ErrOverlapsConfirmed = apperr.New(apperr.ErrConflict, "reservations: confirmed reservations already exist for these dates")
	ErrInvalidTransition = apperr.New(apperr.ErrInvalidState, "reservations: invalid status transition")
	ErrNotFound          = apperr.New(apperr.ErrNotFound, "reservations: not found")
)

type ID string

// TenantSnapshot is captured at creation and never follows later profile edits.
type TenantSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s TenantSnapshot) normalized() TenantSnapshot {
	return TenantSnapshot{
		Name:  strings.TrimSpace(s.Name),
		Email: strings.ToLower(strings.TrimSpace(s.Email)),
		Phone: strings.TrimSpace(s.Phone),
	}
}

func (s TenantSnapshot) validate() error {
	if s.Name == "" {
		return ErrTenantName
	}
	if _, err := mail.ParseAddress(s.Email); err != nil || s.Email == "" {
		return ErrTenantEmail
	}
	return nil
}

type Reservation struct {
	ID           ID
	ListingID    listings.ListingID
	ListingTitle string
	TenantID     profiles.TenantID
	Tenant       TenantSnapshot
	Range        daterange.DateRange
	Status       Status
	Total        money.Money
	Commission   money.Money
	Notes        string
	ReservedAt   time.Time
	ConfirmedAt  *time.Time
	PaidAt       *time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	// Overlapping returns reservations of the listing in one of statuses whose closed range
	// intersects rng. An empty exclude matches nothing.
	Overlapping(ctx context.Context, listingID listings.ListingID, rng daterange.DateRange, statuses []Status, exclude ID) ([]*Reservation, error)
	List(ctx context.Context, filter Filter) (Page, error)
	Summarize(ctx context.Context, filter Filter) (Summary, error)
	CountByStatus(ctx context.Context, filter Filter) (map[Status]int, error)
	DeleteByListing(ctx context.Context, listingID listings.ListingID) error
}

// Quote derives the amounts for a stay. Nothing is charged when the range spans no full day.
// commissionBP is nil when the listing has no owner.
func Quote(monthlyRent money.Money, days int, commissionBP *int64) (total, commission money.Money) {
	total = money.Zero(monthlyRent.Currency)
	commission = money.Zero(monthlyRent.Currency)
	if days <= 0 {
		return total, commission
	}
	total = monthlyRent.ProRate(int64(days), DaysPerMonth)
	if commissionBP != nil {
		commission = total.BasisPoints(*commissionBP)
	}
	return total, commission
}

type CreateParams struct {
	ID           ID
	Listing      *listings.Listing
	CommissionBP *int64
	TenantID     profiles.TenantID
	Tenant       TenantSnapshot
	Range        daterange.DateRange
	Notes        string
	Now          time.Time
}

// NewReservation validates the booking request and derives its amounts. Availability is
// checked by the caller.
func NewReservation(params CreateParams) (*Reservation, error) {
	if params.Listing == nil {
		return nil, ErrListingRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if params.Range.StartsBefore(daterange.Day(now)) {
		return nil, ErrStartInPast
	}
	tenant := params.Tenant.normalized()
	if err := tenant.validate(); err != nil {
		return nil, err
	}
	var commissionBP *int64
	if params.Listing.HasOwner() {
		commissionBP = params.CommissionBP
	}
	total, commission := Quote(params.Listing.MonthlyRent, params.Range.Days(), commissionBP)
	r := &Reservation{
		ID:           params.ID,
		ListingID:    params.Listing.ID,
		ListingTitle: params.Listing.Title,
		TenantID:     params.TenantID,
		Tenant:       tenant,
		Range:        params.Range,
		Status:       StatusReserved,
		Total:        total,
		Commission:   commission,
		Notes:        strings.TrimSpace(params.Notes),
		ReservedAt:   now,
		UpdatedAt:    now,
	}
	r.Record(ReservationCreated{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		ListingTitle:  r.ListingTitle,
		TenantID:      r.TenantID,
		Tenant:        r.Tenant,
		Start:         r.Range.Start,
		End:           r.Range.End,
		Total:         r.Total,
		Status:        r.Status,
		At:            now,
	})
	return r, nil
}

// CheckTransition fails with ErrInvalidTransition when next is not reachable from the
// current status.
func (r *Reservation) CheckTransition(next Status) error {
	return r.Status.checkTransition(next)
}

// TransitionTo moves the reservation to next, stamping confirmation and payment dates the first
// time they are reached. It reports whether the status changed.
func (r *Reservation) TransitionTo(next Status, now time.Time) (bool, error) {
	if err := r.Status.checkTransition(next); err != nil {
		return false, err
	}
	now = now.UTC()
	if next == StatusConfirmed && r.ConfirmedAt == nil {
		r.ConfirmedAt = &now
	}
	if next == StatusPaid && r.PaidAt == nil {
		r.PaidAt = &now
	}
	if next == r.Status {
		return false, nil
	}
	previous := r.Status
	r.Status = next
	r.UpdatedAt = now
	r.Record(StatusChanged{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		ListingTitle:  r.ListingTitle,
		TenantID:      r.TenantID,
		Tenant:        r.Tenant,
		From:          previous,
		To:            next,
		Total:         r.Total,
		At:            now,
	})
	return true, nil
}

func (r *Reservation) Confirm(now time.Time) (bool, error)  { return r.TransitionTo(StatusConfirmed, now) }
func (r *Reservation) MarkPaid(now time.Time) (bool, error) { return r.TransitionTo(StatusPaid, now) }
func (r *Reservation) Cancel(now time.Time) (bool, error)   { return r.TransitionTo(StatusCancelled, now) }
func (r *Reservation) Complete(now time.Time) (bool, error) { return r.TransitionTo(StatusCompleted, now) }

// Occupies reports whether r keeps the listing unavailable on day.
func (r *Reservation) Occupies(day time.Time) bool {
	return r.Status.Blocking() && !r.Range.EndsBefore(daterange.Day(day))
}

// ActiveOn reports whether r is a live stay covering day.
func (r *Reservation) ActiveOn(day time.Time) bool {
	return containsStatus(HoldingStatuses, r.Status) && r.Range.ContainsDay(day)
}
