package listings

import (
	"context"
	"errors"
	"log/slog"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
)

const (
	GetListingKey     = "listings.get"
	SearchListingsKey = "listings.search"
)

// ViewGate decides whether a visit counts as a new view. Implementations remember viewers for
// a time window.
type ViewGate interface {
	FirstView(ctx context.Context, listingID, viewer string) (bool, error)
}

// GetListingQuery resolves a listing by id or slug. Viewer identifies the visitor for view
// counting; an empty Viewer does not count.
type GetListingQuery struct {
	IDOrSlug string `validate:"required"`
	Viewer   string
}

func (q GetListingQuery) Key() string { return GetListingKey }

type GetListingHandler struct {
	UoW    uow.UoWFactory
	Views  ViewGate
	Logger *slog.Logger
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingDetail, error) {
	listing, err := h.load(ctx, q.IDOrSlug)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if q.Viewer != "" && h.countView(ctx, listing, q.Viewer) {
		listing.RecordView()
	}
	return dto.MapListingDetail(listing), nil
}

func (h *GetListingHandler) load(ctx context.Context, idOrSlug string) (*domainlistings.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(idOrSlug))
	if errors.Is(err, domainlistings.ErrNotFound) {
		listing, err = unit.Listings().BySlug(execCtx, idOrSlug)
	}
	return listing, err
}

// countView increments the counter once per viewer window. Failures are logged; the page
// still renders.
func (h *GetListingHandler) countView(ctx context.Context, listing *domainlistings.Listing, viewer string) bool {
	if h.Views != nil {
		first, err := h.Views.FirstView(ctx, string(listing.ID), viewer)
		if err != nil {
			h.warn("view gate failed", listing, err)
			return false
		}
		if !first {
			return false
		}
	}
	err := support.RunInUnit(ctx, h.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.Listings().IncrementViews(ctx, listing.ID)
	})
	if err != nil {
		h.warn("view count failed", listing, err)
		return false
	}
	return true
}

func (h *GetListingHandler) warn(msg string, listing *domainlistings.Listing, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "listing_id", listing.ID, "error", err)
	}
}

type SearchListingsQuery struct {
	Actor     policies.Actor
	Available *bool
	City      string
	RoomCount int `validate:"gte=0"`
	Text      string
	Sort      string
	Limit     int
	Offset    int

	// Mine restricts the results to the acting owner's listings.
	Mine bool
}

func (q SearchListingsQuery) Key() string                { return SearchListingsKey }
func (q SearchListingsQuery) ActingUser() policies.Actor { return q.Actor }
func (q SearchListingsQuery) AllowsAnonymous() bool      { return !q.Mine }

type SearchListingsHandler struct {
	UoW uow.UoWFactory
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingCatalog, error) {
	params := domainlistings.SearchParams{
		Available: q.Available,
		City:      q.City,
		RoomCount: q.RoomCount,
		Text:      q.Text,
		Sort:      domainlistings.Sort(q.Sort),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Mine {
		owner := q.Actor.OwnerID()
		if err := policies.Require(owner != ""); err != nil {
			return dto.ListingCatalog{}, err
		}
		params.Owner = owner
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	result, err := unit.Listings().Search(execCtx, params.Normalized())
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	return dto.MapListingCatalog(result), nil
}

var (
	_ queries.Handler[GetListingQuery, dto.ListingDetail]      = (*GetListingHandler)(nil)
	_ queries.Handler[SearchListingsQuery, dto.ListingCatalog] = (*SearchListingsHandler)(nil)
)
