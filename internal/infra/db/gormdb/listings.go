package gormdb

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	return r.one(ctx, r.u.db(ctx), "id = ?", string(id))
}

func (r listingRepo) BySlug(ctx context.Context, slug string) (*listings.Listing, error) {
	return r.one(ctx, r.u.db(ctx), "slug = ?", slug)
}

// Lock issues SELECT ... FOR UPDATE; the row stays locked until the transaction ends.
func (r listingRepo) Lock(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	locked := r.u.db(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	return r.one(ctx, locked, "id = ?", string(id))
}

// Save runs under a savepoint. Postgres aborts the whole transaction on a unique violation,
// so a slug clash is rolled back to the savepoint and the unit stays usable for a retry.
func (r listingRepo) Save(ctx context.Context, listing *listings.Listing) error {
	const savepoint = "listing_save"
	db := r.u.db(ctx)
	if err := db.SavePoint(savepoint).Error; err != nil {
		return err
	}
	m := newListingModel(listing)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(listingWritable),
	}).Create(&m).Error
	if err != nil {
		if rbErr := db.RollbackTo(savepoint).Error; rbErr != nil {
			return errors.Join(err, rbErr)
		}
	}
	return translate(err, nil, listings.ErrSlugTaken)
}

func (r listingRepo) Delete(ctx context.Context, id listings.ListingID) error {
	if err := r.u.db(ctx).Where("listing_id = ?", string(id)).Delete(&photoModel{}).Error; err != nil {
		return err
	}
	return affected(r.u.db(ctx).Where("id = ?", string(id)).Delete(&listingModel{}), listings.ErrNotFound)
}

func (r listingRepo) SlugTaken(ctx context.Context, slug string, exclude listings.ListingID) (bool, error) {
	var n int64
	err := r.u.db(ctx).Model(&listingModel{}).
		Where("slug = ? AND id <> ?", slug, string(exclude)).
		Count(&n).Error
	return n > 0, err
}

func (r listingRepo) IncrementViews(ctx context.Context, id listings.ListingID) error {
	res := r.u.db(ctx).Model(&listingModel{}).
		Where("id = ?", string(id)).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	return affected(res, listings.ErrNotFound)
}

func (r listingRepo) SetFavoriteCount(ctx context.Context, id listings.ListingID, count int) error {
	res := r.u.db(ctx).Model(&listingModel{}).
		Where("id = ?", string(id)).
		UpdateColumn("favorite_count", count)
	return affected(res, listings.ErrNotFound)
}

func (r listingRepo) AddPhoto(ctx context.Context, photo listings.Photo) error {
	var n int64
	if err := r.u.db(ctx).Model(&listingModel{}).Where("id = ?", string(photo.ListingID)).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return listings.ErrNotFound
	}
	m := photoModel{
		ID:         string(photo.ID),
		ListingID:  string(photo.ListingID),
		ObjectKey:  photo.ObjectKey,
		URL:        photo.URL,
		Caption:    photo.Caption,
		Position:   photo.Position,
		UploadedAt: photo.UploadedAt.UTC(),
	}
	return r.u.db(ctx).Create(&m).Error
}

func (r listingRepo) Search(ctx context.Context, params listings.SearchParams) (listings.SearchResult, error) {
	opts := params.Normalized()
	q := r.u.db(ctx).Model(&listingModel{})
	if opts.Available != nil {
		q = q.Where("available = ?", *opts.Available)
	}
	if opts.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(opts.City))
	}
	if opts.RoomCount > 0 {
		q = q.Where("room_count = ?", opts.RoomCount)
	}
	if opts.Owner != "" {
		q = q.Where("owner_id = ?", string(opts.Owner))
	}
	if opts.Text != "" {
		like := "%" + strings.ToLower(opts.Text) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(street) LIKE ? OR LOWER(city) LIKE ?)", like, like, like, like)
	}
	q = q.Session(&gorm.Session{})

	result := listings.SearchResult{Limit: opts.Limit, Offset: opts.Offset}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return result, err
	}
	result.Total = int(total)

	var rows []listingModel
	err := q.Order(listingOrder(opts.Sort)).Order("id").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return result, err
	}
	items, err := r.hydrate(ctx, rows)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

func (r listingRepo) IDsByOwner(ctx context.Context, owner profiles.OwnerID) ([]listings.ListingID, error) {
	var ids []string
	err := r.u.db(ctx).Model(&listingModel{}).
		Where("owner_id = ?", string(owner)).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make([]listings.ListingID, len(ids))
	for i, id := range ids {
		out[i] = listings.ListingID(id)
	}
	return out, nil
}

func (r listingRepo) TopCities(ctx context.Context, limit int) ([]listings.CityCount, error) {
	var rows []struct {
		City  string
		Count int
	}
	q := r.u.db(ctx).Model(&listingModel{}).
		Select("city, COUNT(*) AS count").
		Group("city").
		Order("count DESC").Order("city")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]listings.CityCount, len(rows))
	for i, row := range rows {
		out[i] = listings.CityCount{City: row.City, Count: row.Count}
	}
	return out, nil
}

func (r listingRepo) one(ctx context.Context, q *gorm.DB, query string, arg string) (*listings.Listing, error) {
	var m listingModel
	if err := q.First(&m, query, arg).Error; err != nil {
		return nil, translate(err, listings.ErrNotFound, nil)
	}
	items, err := r.hydrate(ctx, []listingModel{m})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// hydrate converts rows and attaches their secondary photos in one query.
func (r listingRepo) hydrate(ctx context.Context, rows []listingModel) ([]*listings.Listing, error) {
	out := make([]*listings.Listing, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	byID := make(map[string]*listings.Listing, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
		byID[row.ID] = out[i]
		ids[i] = row.ID
	}
	var photos []photoModel
	err := r.u.db(ctx).
		Where("listing_id IN ?", ids).
		Order("position").Order("id").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		if l, ok := byID[p.ListingID]; ok {
			l.Photos = append(l.Photos, p.toDomain())
		}
	}
	return out, nil
}

func listingOrder(sort listings.Sort) string {
	column := "created_at"
	switch sort.Field() {
	case "rent":
		column = "monthly_rent"
	case "surface":
		column = "COALESCE(surface_area, 0)"
	case "views":
		column = "view_count"
	}
	if sort.Descending() {
		return column + " DESC"
	}
	return column + " ASC"
}

var _ listings.Repository = listingRepo{}
