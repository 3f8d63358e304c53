package favorites

import (
	"context"
	"time"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/apperr"
)

var (
	ErrNotFound = apperr.New(apperr.ErrNotFound, "favorites: not found")
	ErrExists   = apperr.New(apperr.ErrConflict, "favorites: already in favorites")
)

// Favorite is unique per (tenant, listing).
type Favorite struct {
	Tenant    profiles.TenantID
	ListingID listings.ListingID
	AddedAt   time.Time
}

type Repository interface {
	Exists(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) (bool, error)
	Add(ctx context.Context, fav Favorite) error
	Remove(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) error
	CountByListing(ctx context.Context, listingID listings.ListingID) (int, error)
	CountByTenant(ctx context.Context, tenant profiles.TenantID) (int, error)
	// ListByTenant returns the most recent favorites first.
	ListByTenant(ctx context.Context, tenant profiles.TenantID, limit, offset int) ([]Favorite, int, error)
	DeleteByListing(ctx context.Context, listingID listings.ListingID) error
}
