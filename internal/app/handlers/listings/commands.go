package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/money"
)

const (
	CreateListingKey = "listings.create"
	UpdateListingKey = "listings.update"
	DeleteListingKey = "listings.delete"
)

type CreateListingCommand struct {
	Actor policies.Actor

	// OwnerID lets an admin file a listing for an owner. Owners always create for themselves.
	OwnerID     string
	Title       string `validate:"required,max=200"`
	Description string
	Street      string `validate:"required,max=255"`
	City        string `validate:"required,max=100"`
	PostalCode  string `validate:"max=10"`
	MonthlyRent int64  `validate:"gt=0"`
	Deposit     int64  `validate:"gte=0"`
	SurfaceArea *int   `validate:"omitempty,min=1,max=1000"`
	RoomCount   int    `validate:"min=1"`

	IdempotencyKeyV string
}

func (c CreateListingCommand) Key() string                { return CreateListingKey }
func (c CreateListingCommand) ActingUser() policies.Actor { return c.Actor }
func (c CreateListingCommand) IdempotencyKey() string     { return c.IdempotencyKeyV }
func (c CreateListingCommand) ResultPrototype() any       { return &dto.ListingDetail{} }

type CreateListingHandler struct {
	Logger   *slog.Logger
	Currency string
	Clock    func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.ListingDetail, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := resolveOwner(ctx, unit, cmd.Actor, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	rent, err := money.New(cmd.MonthlyRent, h.Currency)
	if err != nil {
		return nil, err
	}
	deposit, err := money.New(cmd.Deposit, h.Currency)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(uuid.NewString()),
		Owner:       owner,
		Title:       cmd.Title,
		Description: cmd.Description,
		Address:     domainlistings.Address{Street: cmd.Street, City: cmd.City, PostalCode: cmd.PostalCode},
		MonthlyRent: rent,
		Deposit:     deposit,
		SurfaceArea: cmd.SurfaceArea,
		RoomCount:   cmd.RoomCount,
		Now:         now(h.Clock),
	})
	if err != nil {
		return nil, err
	}
	if err := insertWithSlug(ctx, unit.Listings(), listing); err != nil {
		return nil, err
	}
	aggregates.FromContext(ctx).Owner(owner)

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", owner, "slug", listing.Slug)
	}
	result := dto.MapListingDetail(listing)
	return &result, nil
}

// insertWithSlug assigns the slug and saves. A concurrent create can claim the same slug
// between the check and the insert; the loser moves on to the next free suffix once.
func insertWithSlug(ctx context.Context, repo domainlistings.Repository, l *domainlistings.Listing) error {
	for retried := false; ; retried = true {
		if err := domainlistings.AssignSlug(ctx, repo, l); err != nil {
			return err
		}
		err := repo.Save(ctx, l)
		if retried || !errors.Is(err, domainlistings.ErrSlugTaken) {
			return err
		}
		l.Slug = ""
	}
}

func resolveOwner(ctx context.Context, unit uow.UnitOfWork, actor policies.Actor, requested string) (profiles.OwnerID, error) {
	if !policies.IsAdmin(actor) {
		owner := actor.OwnerID()
		if err := policies.Require(owner != ""); err != nil {
			return "", err
		}
		return owner, nil
	}
	if requested == "" {
		return "", nil
	}
	found, err := unit.Profiles().OwnerByID(ctx, profiles.OwnerID(requested))
	if err != nil {
		return "", err
	}
	return found.ID, nil
}

// UpdateListingCommand carries the fields to change; nil fields are kept.
type UpdateListingCommand struct {
	Actor       policies.Actor
	ListingID   string  `validate:"required"`
	Title       *string `validate:"omitempty,min=1,max=200"`
	Description *string
	Street      *string `validate:"omitempty,min=1,max=255"`
	City        *string `validate:"omitempty,min=1,max=100"`
	PostalCode  *string `validate:"omitempty,max=10"`
	MonthlyRent *int64  `validate:"omitempty,gt=0"`
	Deposit     *int64  `validate:"omitempty,gte=0"`
	SurfaceArea *int    `validate:"omitempty,min=1,max=1000"`
	RoomCount   *int    `validate:"omitempty,min=1"`
}

func (c UpdateListingCommand) Key() string                { return UpdateListingKey }
func (c UpdateListingCommand) ActingUser() policies.Actor { return c.Actor }

type UpdateListingHandler struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.ListingDetail, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().Lock(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := policies.Require(policies.CanManageListing(cmd.Actor, listing)); err != nil {
		return nil, err
	}

	params := domainlistings.UpdateParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		SurfaceArea: cmd.SurfaceArea,
		RoomCount:   cmd.RoomCount,
	}
	if cmd.Street != nil || cmd.City != nil || cmd.PostalCode != nil {
		addr := listing.Address
		if cmd.Street != nil {
			addr.Street = *cmd.Street
		}
		if cmd.City != nil {
			addr.City = *cmd.City
		}
		if cmd.PostalCode != nil {
			addr.PostalCode = *cmd.PostalCode
		}
		params.Address = &addr
	}
	if cmd.MonthlyRent != nil {
		rent := money.Money{Amount: *cmd.MonthlyRent, Currency: listing.MonthlyRent.Currency}
		params.MonthlyRent = &rent
	}
	if cmd.Deposit != nil {
		deposit := money.Money{Amount: *cmd.Deposit, Currency: listing.MonthlyRent.Currency}
		params.Deposit = &deposit
	}
	if err := listing.Update(params, now(h.Clock)); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing updated", "listing_id", listing.ID)
	}
	result := dto.MapListingDetail(listing)
	return &result, nil
}

type DeleteListingCommand struct {
	Actor     policies.Actor
	ListingID string `validate:"required"`
}

func (c DeleteListingCommand) Key() string                { return DeleteListingKey }
func (c DeleteListingCommand) ActingUser() policies.Actor { return c.Actor }

// DeleteListingHandler removes a listing together with its photos, reservations and
// favorites. Counters of the affected owner and tenants are recomputed after commit.
type DeleteListingHandler struct {
	Logger *slog.Logger
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (*dto.ListingDeleted, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().Lock(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := policies.Require(policies.CanManageListing(cmd.Actor, listing)); err != nil {
		return nil, err
	}

	tracker := aggregates.FromContext(ctx)
	removed := 0
	for offset := 0; ; {
		page, err := unit.Reservations().List(ctx, reservations.Filter{ListingID: listing.ID, Limit: 100, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, res := range page.Items {
			tracker.Tenant(res.TenantID)
		}
		removed = page.Total
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}
	if err := unit.Reservations().DeleteByListing(ctx, listing.ID); err != nil {
		return nil, err
	}
	if err := unit.Favorites().DeleteByListing(ctx, listing.ID); err != nil {
		return nil, err
	}
	if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
		return nil, err
	}
	tracker.Owner(listing.Owner)

	if h.Logger != nil {
		h.Logger.Info("listing deleted", "listing_id", listing.ID, "reservations_removed", removed)
	}
	return &dto.ListingDeleted{ID: string(listing.ID), ReservationsRemoved: removed}, nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

var (
	_ commands.Handler[CreateListingCommand, *dto.ListingDetail]  = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingCommand, *dto.ListingDetail]  = (*UpdateListingHandler)(nil)
	_ commands.Handler[DeleteListingCommand, *dto.ListingDeleted] = (*DeleteListingHandler)(nil)
)
