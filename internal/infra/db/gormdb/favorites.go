package gormdb

import (
	"context"

	"rentdesk/internal/domain/favorites"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
)

type favoriteRepo struct{ u *Unit }

func (r favoriteRepo) Exists(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) (bool, error) {
	var n int64
	err := r.u.db(ctx).Model(&favoriteModel{}).
		Where("tenant_id = ? AND listing_id = ?", string(tenant), string(listingID)).
		Count(&n).Error
	return n > 0, err
}

func (r favoriteRepo) Add(ctx context.Context, fav favorites.Favorite) error {
	m := favoriteModel{TenantID: string(fav.Tenant), ListingID: string(fav.ListingID), AddedAt: fav.AddedAt.UTC()}
	return translate(r.u.db(ctx).Create(&m).Error, nil, favorites.ErrExists)
}

func (r favoriteRepo) Remove(ctx context.Context, tenant profiles.TenantID, listingID listings.ListingID) error {
	res := r.u.db(ctx).
		Where("tenant_id = ? AND listing_id = ?", string(tenant), string(listingID)).
		Delete(&favoriteModel{})
	return affected(res, favorites.ErrNotFound)
}

func (r favoriteRepo) CountByListing(ctx context.Context, listingID listings.ListingID) (int, error) {
	var n int64
	err := r.u.db(ctx).Model(&favoriteModel{}).Where("listing_id = ?", string(listingID)).Count(&n).Error
	return int(n), err
}

func (r favoriteRepo) CountByTenant(ctx context.Context, tenant profiles.TenantID) (int, error) {
	var n int64
	err := r.u.db(ctx).Model(&favoriteModel{}).Where("tenant_id = ?", string(tenant)).Count(&n).Error
	return int(n), err
}

func (r favoriteRepo) ListByTenant(ctx context.Context, tenant profiles.TenantID, limit, offset int) ([]favorites.Favorite, int, error) {
	q := r.u.db(ctx).Model(&favoriteModel{}).Where("tenant_id = ?", string(tenant))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []favoriteModel
	err := r.u.db(ctx).
		Where("tenant_id = ?", string(tenant)).
		Order("added_at DESC").Order("listing_id").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]favorites.Favorite, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, int(total), nil
}

func (r favoriteRepo) DeleteByListing(ctx context.Context, listingID listings.ListingID) error {
	return r.u.db(ctx).Where("listing_id = ?", string(listingID)).Delete(&favoriteModel{}).Error
}

var _ favorites.Repository = favoriteRepo{}
