package reservations

import (
	"context"
	"time"

	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
	domain "rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	GetReservationKey      = "reservations.get"
	ListReservationsKey    = "reservations.list"
	ListingReservationsKey = "reservations.by_listing"
	CheckAvailabilityKey   = "reservations.check_availability"
)

type GetReservationQuery struct {
	Actor policies.Actor
	ID    string
}

func (q GetReservationQuery) Key() string                { return GetReservationKey }
func (q GetReservationQuery) ActingUser() policies.Actor { return q.Actor }

type GetReservationHandler struct {
	UoW uow.UoWFactory
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (*dto.ReservationView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, err := unit.Reservations().ByID(execCtx, domain.ID(q.ID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(execCtx, res.ListingID)
	if err != nil {
		return nil, err
	}
	if !policies.CanView(q.Actor, listing, res) {
		// Do not reveal reservations of other parties.
		return nil, domain.ErrNotFound
	}
	view := dto.MapReservation(res)
	return &view, nil
}

// Scope selects a preset of the reservation list.
type Scope string

const (
	ScopeAll Scope = ""
	// ScopeActive keeps live stays covering today.
	ScopeActive Scope = "active"
	// ScopeUpcoming keeps RESERVED or CONFIRMED stays starting after today.
	ScopeUpcoming Scope = "upcoming"
)

type ListReservationsQuery struct {
	Actor     policies.Actor
	Scope     Scope
	ListingID string
	Statuses  []domain.Status
	Search    string
	Sort      string
	Limit     int
	Offset    int
}

func (q ListReservationsQuery) Key() string                { return ListReservationsKey }
func (q ListReservationsQuery) ActingUser() policies.Actor { return q.Actor }

// ListReservationsHandler lists what the actor may see: everything for admins, the stays on
// their listings for owners and their own stays for tenants.
type ListReservationsHandler struct {
	UoW   uow.UoWFactory
	Clock func() time.Time
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) (dto.ReservationList, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.ReservationList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	filter := domain.Filter{
		ListingID: domainlistings.ListingID(q.ListingID),
		Statuses:  q.Statuses,
		Search:    q.Search,
		Sort:      domain.Sort(q.Sort),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	today := daterange.Day(now(h.Clock))
	switch q.Scope {
	case ScopeActive:
		filter.ActiveOn = today
		filter.Statuses = domain.HoldingStatuses
	case ScopeUpcoming:
		filter.StartsAfter = today
		filter.Statuses = []domain.Status{domain.StatusReserved, domain.StatusConfirmed}
		if filter.Sort == "" {
			filter.Sort = domain.SortStartAsc
		}
	}
	filter, err = ScopeFilter(q.Actor, filter)
	if err != nil {
		return dto.ReservationList{}, err
	}
	page, err := unit.Reservations().List(execCtx, filter)
	if err != nil {
		return dto.ReservationList{}, err
	}
	return dto.MapReservationPage(page), nil
}

// ScopeFilter restricts filter to the reservations visible to actor.
func ScopeFilter(actor policies.Actor, filter domain.Filter) (domain.Filter, error) {
	switch {
	case !actor.Authenticated():
		return filter, policies.ErrUnauthenticated
	case policies.IsAdmin(actor):
	case actor.OwnerID() != "":
		filter.Owner = actor.OwnerID()
	default:
		filter.Party = &domain.TenantParty{TenantID: actor.TenantID(), Email: actor.Email}
	}
	return filter, nil
}

// ListingReservationsQuery returns the live stays of a listing, earliest first. It backs the
// public occupancy calendar, so tenant details are stripped for other parties.
type ListingReservationsQuery struct {
	Actor     policies.Actor
	ListingID string
}

func (q ListingReservationsQuery) Key() string                { return ListingReservationsKey }
func (q ListingReservationsQuery) ActingUser() policies.Actor { return q.Actor }
func (q ListingReservationsQuery) AllowsAnonymous() bool      { return true }

type ListingReservationsHandler struct {
	UoW uow.UoWFactory
}

func (h *ListingReservationsHandler) Handle(ctx context.Context, q ListingReservationsQuery) ([]dto.ReservationView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReservationView, 0)
	offset := 0
	for {
		page, err := unit.Reservations().List(execCtx, domain.Filter{
			ListingID: listing.ID,
			Statuses:  domain.HoldingStatuses,
			Sort:      domain.SortStartAsc,
			Limit:     100,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}
		for _, res := range page.Items {
			view := dto.MapReservation(res)
			if !policies.CanView(q.Actor, listing, res) {
				view = redact(view)
			}
			out = append(out, view)
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}
	return out, nil
}

func redact(v dto.ReservationView) dto.ReservationView {
	return dto.ReservationView{
		ID:           v.ID,
		ListingID:    v.ListingID,
		ListingTitle: v.ListingTitle,
		StartDate:    v.StartDate,
		EndDate:      v.EndDate,
		Nights:       v.Nights,
		Status:       v.Status,
		Currency:     v.Currency,
		ReservedAt:   v.ReservedAt,
	}
}

type CheckAvailabilityQuery struct {
	ListingID string
	StartDate string
	EndDate   string
}

func (q CheckAvailabilityQuery) Key() string { return CheckAvailabilityKey }

// CheckAvailabilityHandler answers whether a range is free of live reservations. It is a
// read; nothing is held.
type CheckAvailabilityHandler struct {
	UoW          uow.UoWFactory
	Availability availability.Engine
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityView, error) {
	rng, err := daterange.Parse(q.StartDate, q.EndDate)
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	conflict, err := h.Availability.HasConflict(execCtx, unit.Reservations(), listing.ID, rng, "")
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	view := dto.AvailabilityView{
		ListingID: string(listing.ID),
		StartDate: rng.Start.Format(dto.DateLayout),
		EndDate:   rng.End.Format(dto.DateLayout),
		Available: !conflict,
		Message:   "Listing is available for these dates",
	}
	if conflict {
		view.Message = "Listing is not available for these dates"
	}
	return view, nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

var (
	_ queries.Handler[GetReservationQuery, *dto.ReservationView]       = (*GetReservationHandler)(nil)
	_ queries.Handler[ListReservationsQuery, dto.ReservationList]      = (*ListReservationsHandler)(nil)
	_ queries.Handler[ListingReservationsQuery, []dto.ReservationView] = (*ListingReservationsHandler)(nil)
	_ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityView]    = (*CheckAvailabilityHandler)(nil)
)
