package reservations

import (
	"context"
	"log/slog"
	"time"

	"rentdesk/internal/app/availability"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domain "rentdesk/internal/domain/reservations"
)

const (
	ConfirmReservationKey  = "reservations.confirm"
	MarkPaidKey            = "reservations.mark_paid"
	CancelReservationKey   = "reservations.cancel"
	CompleteReservationKey = "reservations.complete"
	UpdateStatusKey        = "reservations.update_status"
)

// StatusChange carries what every transition command needs.
type StatusChange struct {
	Actor         policies.Actor
	ReservationID string `validate:"required"`

	IdempotencyKeyV string
}

func (c StatusChange) ActingUser() policies.Actor { return c.Actor }
func (c StatusChange) IdempotencyKey() string     { return c.IdempotencyKeyV }
func (c StatusChange) ResultPrototype() any       { return &dto.ReservationView{} }

type ConfirmReservationCommand struct{ StatusChange }

type MarkPaidCommand struct{ StatusChange }

type CancelReservationCommand struct{ StatusChange }

type CompleteReservationCommand struct{ StatusChange }

type UpdateStatusCommand struct {
	StatusChange
	Status string `validate:"required"`
}

func (ConfirmReservationCommand) Key() string  { return ConfirmReservationKey }
func (MarkPaidCommand) Key() string            { return MarkPaidKey }
func (CancelReservationCommand) Key() string   { return CancelReservationKey }
func (CompleteReservationCommand) Key() string { return CompleteReservationKey }
func (UpdateStatusCommand) Key() string        { return UpdateStatusKey }

// Transitioner applies status changes. The listing row is locked first so confirmations of
// overlapping stays on the same listing run one at a time.
type Transitioner struct {
	Logger       *slog.Logger
	Availability availability.Engine
	Clock        func() time.Time
}

func (t *Transitioner) Apply(ctx context.Context, change StatusChange, target domain.Status) (*dto.ReservationView, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	found, err := unit.Reservations().ByID(ctx, domain.ID(change.ReservationID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().Lock(ctx, found.ListingID)
	if err != nil {
		return nil, err
	}
	// Reload under the listing lock so concurrent transitions see each other.
	res, err := unit.Reservations().ByID(ctx, found.ID)
	if err != nil {
		return nil, err
	}

	allowed := policies.CanManageListing(change.Actor, listing)
	if target == domain.StatusCancelled {
		allowed = policies.CanCancel(change.Actor, listing, res)
	}
	if err := policies.Require(allowed); err != nil {
		return nil, err
	}

	// State errors win over date conflicts.
	if err := res.CheckTransition(target); err != nil {
		return nil, err
	}
	if target == domain.StatusConfirmed && res.Status != domain.StatusConfirmed {
		if err := t.Availability.CheckConfirmation(ctx, unit.Reservations(), res); err != nil {
			return nil, err
		}
	}
	from := res.Status
	changed, err := res.TransitionTo(target, now(t.Clock))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := unit.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}
		if _, err := t.Availability.RefreshListing(ctx, unit.Listings(), unit.Reservations(), listing); err != nil {
			return nil, err
		}
		outbox.RecordDomainEvents(ctx, res)
		touch(ctx, listing, res)
		if t.Logger != nil {
			t.Logger.Info("reservation status changed", "reservation_id", res.ID, "from", from, "to", res.Status, "listing_available", listing.Available)
		}
	}

	view := dto.MapReservation(res)
	return &view, nil
}

type ConfirmReservationHandler struct{ *Transitioner }

func (h ConfirmReservationHandler) Handle(ctx context.Context, cmd ConfirmReservationCommand) (*dto.ReservationView, error) {
	return h.Apply(ctx, cmd.StatusChange, domain.StatusConfirmed)
}

type MarkPaidHandler struct{ *Transitioner }

func (h MarkPaidHandler) Handle(ctx context.Context, cmd MarkPaidCommand) (*dto.ReservationView, error) {
	return h.Apply(ctx, cmd.StatusChange, domain.StatusPaid)
}

type CancelReservationHandler struct{ *Transitioner }

func (h CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*dto.ReservationView, error) {
	return h.Apply(ctx, cmd.StatusChange, domain.StatusCancelled)
}

type CompleteReservationHandler struct{ *Transitioner }

func (h CompleteReservationHandler) Handle(ctx context.Context, cmd CompleteReservationCommand) (*dto.ReservationView, error) {
	return h.Apply(ctx, cmd.StatusChange, domain.StatusCompleted)
}

// UpdateStatusHandler is the generic form used by the status endpoint.
type UpdateStatusHandler struct{ *Transitioner }

func (h UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*dto.ReservationView, error) {
	target, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.Apply(ctx, cmd.StatusChange, target)
}

var (
	_ commands.Handler[ConfirmReservationCommand, *dto.ReservationView]  = ConfirmReservationHandler{}
	_ commands.Handler[MarkPaidCommand, *dto.ReservationView]            = MarkPaidHandler{}
	_ commands.Handler[CancelReservationCommand, *dto.ReservationView]   = CancelReservationHandler{}
	_ commands.Handler[CompleteReservationCommand, *dto.ReservationView] = CompleteReservationHandler{}
	_ commands.Handler[UpdateStatusCommand, *dto.ReservationView]        = UpdateStatusHandler{}
)
