package reservations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	domain "rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const CreateReservationKey = "reservations.create"

type CreateReservationCommand struct {
	Actor       policies.Actor
	ListingID   string    `validate:"required"`
	StartDate   time.Time `validate:"required"`
	EndDate     time.Time `validate:"required"`
	TenantName  string    `validate:"omitempty,max=100"`
	TenantEmail string    `validate:"omitempty,email"`
	TenantPhone string    `validate:"omitempty,max=20"`
	Notes       string    `validate:"max=2000"`

	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string                { return CreateReservationKey }
func (c CreateReservationCommand) ActingUser() policies.Actor { return c.Actor }
func (c CreateReservationCommand) IdempotencyKey() string     { return c.IdempotencyKeyV }
func (c CreateReservationCommand) ResultPrototype() any       { return &dto.ReservationView{} }

// CreateReservationHandler books a listing for a date range. The listing row stays locked
// from the availability check until commit.
type CreateReservationHandler struct {
	Logger       *slog.Logger
	Availability availability.Engine
	Clock        func() time.Time
	NewID        func() string
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*dto.ReservationView, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().Lock(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := h.Availability.CheckRequest(ctx, unit.Reservations(), listing.ID, rng); err != nil {
		return nil, err
	}

	snapshot, tenantID, err := resolveTenant(ctx, unit, cmd)
	if err != nil {
		return nil, err
	}
	var commissionBP *int64
	if listing.HasOwner() {
		owner, err := unit.Profiles().OwnerByID(ctx, listing.Owner)
		if err != nil {
			return nil, err
		}
		commissionBP = &owner.CommissionBP
	}

	res, err := domain.NewReservation(domain.CreateParams{
		ID:           domain.ID(h.newID()),
		Listing:      listing,
		CommissionBP: commissionBP,
		TenantID:     tenantID,
		Tenant:       snapshot,
		Range:        rng,
		Notes:        cmd.Notes,
		Now:          now(h.Clock),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	outbox.RecordDomainEvents(ctx, res)
	touch(ctx, listing, res)

	if h.Logger != nil {
		h.Logger.Info("reservation created", "reservation_id", res.ID, "listing_id", listing.ID, "range", res.Range.String(), "total", res.Total.String())
	}

	view := dto.MapReservation(res)
	return &view, nil
}

// resolveTenant fills the snapshot from the acting tenant when the request omits it and links
// the tenant profile whose email matches the snapshot.
func resolveTenant(ctx context.Context, unit uow.UnitOfWork, cmd CreateReservationCommand) (domain.TenantSnapshot, profiles.TenantID, error) {
	snapshot := domain.TenantSnapshot{Name: cmd.TenantName, Email: cmd.TenantEmail, Phone: cmd.TenantPhone}
	if tenant, ok := cmd.Actor.Account.Tenant(); ok {
		if snapshot.Name == "" {
			snapshot.Name = tenant.Name
		}
		if snapshot.Email == "" {
			snapshot.Email = tenant.Email
		}
		if snapshot.Phone == "" {
			snapshot.Phone = tenant.Phone
		}
	}
	if snapshot.Email == "" {
		snapshot.Email = cmd.Actor.Email
	}
	if snapshot.Email == "" {
		return snapshot, "", nil
	}
	linked, err := unit.Profiles().TenantByEmail(ctx, snapshot.Email)
	if errors.Is(err, profiles.ErrTenantNotFound) {
		return snapshot, "", nil
	}
	if err != nil {
		return snapshot, "", err
	}
	return snapshot, linked.ID, nil
}

func touch(ctx context.Context, listing *domainlistings.Listing, res *domain.Reservation) {
	tracker := aggregates.FromContext(ctx)
	tracker.Tenant(res.TenantID)
	tracker.Owner(listing.Owner)
}

func (h *CreateReservationHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[CreateReservationCommand, *dto.ReservationView] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = CreateReservationCommand{}
