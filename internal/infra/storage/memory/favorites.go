package memory

import (
	"context"
	"sort"

	"rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
)

type favoriteRepo struct{ u *Unit }

func (r favoriteRepo) Exists(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) (bool, error) {
	_, ok := r.u.data.favorites[favoriteKey{tenant, listingID}]
	return ok, nil
}

func (r favoriteRepo) Add(ctx context.Context, fav favorites.Favorite) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	key := favoriteKey{fav.Tenant, fav.ListingID}
	if _, ok := r.u.data.favorites[key]; ok {
		return favorites.ErrExists
	}
	if _, ok := r.u.data.listings[fav.ListingID]; !ok {
		return listings.ErrNotFound
	}
	r.u.data.favorites[key] = fav
	return nil
}

func (r favoriteRepo) Remove(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	key := favoriteKey{tenant, listingID}
	if _, ok := r.u.data.favorites[key]; !ok {
		return favorites.ErrNotFound
	}
	delete(r.u.data.favorites, key)
	return nil
}

func (r favoriteRepo) CountByListing(ctx context.Context, listingID listings.ListingID) (int, error) {
	n := 0
	for key := range r.u.data.favorites {
		if key.listing == listingID {
			n++
		}
	}
	return n, nil
}

func (r favoriteRepo) CountByTenant(ctx context.Context, tenant profiles.TenantID) (int, error) {
	n := 0
	for key := range r.u.data.favorites {
		if key.tenant == tenant {
			n++
		}
	}
	return n, nil
}

func (r favoriteRepo) ListByTenant(ctx context.Context, tenant profiles.TenantID, limit, offset int) ([]favorites.Favorite, int, error) {
	var all []favorites.Favorite
	for key, fav := range r.u.data.favorites {
		if key.tenant == tenant {
			all = append(all, fav)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].AddedAt.Equal(all[j].AddedAt) {
			return all[i].AddedAt.After(all[j].AddedAt)
		}
		return all[i].ListingID < all[j].ListingID
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	}
	return all[offset:end], total, nil
}

func (r favoriteRepo) DeleteByListing(ctx context.Context, listingID listings.ListingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for key := range r.u.data.favorites {
		if key.listing == listingID {
			delete(r.u.data.favorites, key)
		}
	}
	return nil
}

var _ favorites.Repository = favoriteRepo{}
