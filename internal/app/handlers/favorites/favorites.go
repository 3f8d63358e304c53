package favorites

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domain "rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/shared/apperr"
)

const (
	ToggleFavoriteKey = "favorites.toggle"
	ListFavoritesKey  = "favorites.list"

	ActionAdd    = "add"
	ActionRemove = "remove"
)

var (
	ErrTenantOnly    = apperr.New(apperr.ErrForbidden, "favorites: only tenants keep favorites")
	ErrUnknownAction = apperr.New(apperr.ErrValidation, "favorites: action must be add or remove")
)

type ToggleFavoriteCommand struct {
	Actor     policies.Actor
	ListingID string `validate:"required"`
	Action    string `validate:"required"`
}

func (c ToggleFavoriteCommand) Key() string                { return ToggleFavoriteKey }
func (c ToggleFavoriteCommand) ActingUser() policies.Actor { return c.Actor }

// ToggleFavoriteHandler adds or removes a listing from the tenant's favorites. Both actions
// are idempotent.
type ToggleFavoriteHandler struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*dto.FavoriteToggleResult, error) {
	tenant := cmd.Actor.TenantID()
	if tenant == "" {
		return nil, ErrTenantOnly
	}
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, listings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	result := &dto.FavoriteToggleResult{ListingID: string(listing.ID)}
	switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
	case ActionAdd:
		exists, err := unit.Favorites().Exists(ctx, tenant, listing.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			at := time.Now()
			if h.Clock != nil {
				at = h.Clock()
			}
			err := unit.Favorites().Add(ctx, domain.Favorite{Tenant: tenant, ListingID: listing.ID, AddedAt: at.UTC()})
			if err != nil && !errors.Is(err, domain.ErrExists) {
				return nil, err
			}
		}
		result.Favorited = true
		result.Message = "Listing added to favorites"
	case ActionRemove:
		err := unit.Favorites().Remove(ctx, tenant, listing.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		result.Message = "Listing removed from favorites"
	default:
		return nil, ErrUnknownAction
	}

	count, err := unit.Favorites().CountByTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}
	result.FavoritesCount = count
	aggregates.FromContext(ctx).Listing(listing.ID)

	if h.Logger != nil {
		h.Logger.Info("favorite toggled", "listing_id", listing.ID, "tenant_id", tenant, "favorited", result.Favorited)
	}
	return result, nil
}

type ListFavoritesQuery struct {
	Actor  policies.Actor
	Limit  int
	Offset int
}

func (q ListFavoritesQuery) Key() string                { return ListFavoritesKey }
func (q ListFavoritesQuery) ActingUser() policies.Actor { return q.Actor }

type ListFavoritesHandler struct {
	UoW uow.UoWFactory
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.FavoriteList, error) {
	tenant := q.Actor.TenantID()
	if tenant == "" {
		return dto.FavoriteList{}, ErrTenantOnly
	}
	limit, offset := support.Page(q.Limit, q.Offset, 20, 100)
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.FavoriteList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	favs, total, err := unit.Favorites().ListByTenant(execCtx, tenant, limit, offset)
	if err != nil {
		return dto.FavoriteList{}, err
	}
	out := dto.FavoriteList{Items: make([]dto.FavoriteItem, 0, len(favs)), Total: total, Limit: limit, Offset: offset}
	for _, fav := range favs {
		listing, err := unit.Listings().ByID(execCtx, fav.ListingID)
		if errors.Is(err, listings.ErrNotFound) {
			continue
		}
		if err != nil {
			return dto.FavoriteList{}, err
		}
		out.Items = append(out.Items, dto.FavoriteItem{Listing: dto.MapListingSummary(listing), AddedAt: fav.AddedAt})
	}
	return out, nil
}

var (
	_ commands.Handler[ToggleFavoriteCommand, *dto.FavoriteToggleResult] = (*ToggleFavoriteHandler)(nil)
	_ queries.Handler[ListFavoritesQuery, dto.FavoriteList]              = (*ListFavoritesHandler)(nil)
)
