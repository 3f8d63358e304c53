package memory

import (
	"context"
	"sort"
	"strings"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	row, ok := r.u.data.listings[id]
	if !ok {
		return nil, listings.ErrNotFound
	}
	return r.hydrate(row), nil
}

func (r listingRepo) BySlug(ctx context.Context, slug string) (*listings.Listing, error) {
	for _, row := range r.u.data.listings {
		if row.Slug == slug {
			return r.hydrate(row), nil
		}
	}
	return nil, listings.ErrNotFound
}

// Lock needs nothing more than ByID: read-write units already run one at a time.
func (r listingRepo) Lock(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r listingRepo) Save(ctx context.Context, listing *listings.Listing) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if listing.Slug != "" {
		for id, row := range r.u.data.listings {
			if id != listing.ID && row.Slug == listing.Slug {
				return listings.ErrSlugTaken
			}
		}
	}
	row := *listing
	if existing, ok := r.u.data.listings[listing.ID]; ok {
		row.ViewCount = existing.ViewCount
		row.FavoriteCount = existing.FavoriteCount
	}
	row.Photos = nil
	if row.SurfaceArea != nil {
		area := *row.SurfaceArea
		row.SurfaceArea = &area
	}
	r.u.data.listings[listing.ID] = row
	return nil
}

func (r listingRepo) Delete(ctx context.Context, id listings.ListingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.data.listings[id]; !ok {
		return listings.ErrNotFound
	}
	delete(r.u.data.listings, id)
	for pid, photo := range r.u.data.photos {
		if photo.ListingID == id {
			delete(r.u.data.photos, pid)
		}
	}
	return nil
}

func (r listingRepo) SlugTaken(ctx context.Context, slug string, exclude listings.ListingID) (bool, error) {
	for id, row := range r.u.data.listings {
		if id != exclude && row.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r listingRepo) IncrementViews(ctx context.Context, id listings.ListingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row, ok := r.u.data.listings[id]
	if !ok {
		return listings.ErrNotFound
	}
	row.ViewCount++
	r.u.data.listings[id] = row
	return nil
}

func (r listingRepo) SetFavoriteCount(ctx context.Context, id listings.ListingID, count int) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row, ok := r.u.data.listings[id]
	if !ok {
		return listings.ErrNotFound
	}
	row.FavoriteCount = count
	r.u.data.listings[id] = row
	return nil
}

func (r listingRepo) AddPhoto(ctx context.Context, photo listings.Photo) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.data.listings[photo.ListingID]; !ok {
		return listings.ErrNotFound
	}
	r.u.data.photos[photo.ID] = photo
	return nil
}

func (r listingRepo) Search(ctx context.Context, params listings.SearchParams) (listings.SearchResult, error) {
	opts := params.Normalized()
	matches := make([]*listings.Listing, 0)
	for _, row := range r.u.data.listings {
		if err := ctx.Err(); err != nil {
			return listings.SearchResult{}, err
		}
		l := row
		if opts.Matches(&l) {
			matches = append(matches, &l)
		}
	}
	sortListings(matches, opts.Sort)
	result := listings.SearchResult{Total: len(matches), Limit: opts.Limit, Offset: opts.Offset}
	if opts.Offset >= len(matches) {
		return result, nil
	}
	end := min(opts.Offset+opts.Limit, len(matches))
	for _, l := range matches[opts.Offset:end] {
		result.Items = append(result.Items, r.hydrate(*l))
	}
	return result, nil
}

func (r listingRepo) IDsByOwner(ctx context.Context, owner profiles.OwnerID) ([]listings.ListingID, error) {
	var out []listings.ListingID
	for id, row := range r.u.data.listings {
		if row.Owner == owner {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r listingRepo) TopCities(ctx context.Context, limit int) ([]listings.CityCount, error) {
	counts := make(map[string]int)
	for _, row := range r.u.data.listings {
		counts[row.Address.City]++
	}
	out := make([]listings.CityCount, 0, len(counts))
	for city, n := range counts {
		out = append(out, listings.CityCount{City: city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r listingRepo) hydrate(row listings.Listing) *listings.Listing {
	if row.SurfaceArea != nil {
		area := *row.SurfaceArea
		row.SurfaceArea = &area
	}
	row.Photos = nil
	for _, photo := range r.u.data.photos {
		if photo.ListingID == row.ID {
			row.Photos = append(row.Photos, photo)
		}
	}
	sort.Slice(row.Photos, func(i, j int) bool {
		if row.Photos[i].Position != row.Photos[j].Position {
			return row.Photos[i].Position < row.Photos[j].Position
		}
		return row.Photos[i].ID < row.Photos[j].ID
	})
	return &row
}

func sortListings(items []*listings.Listing, order listings.Sort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var less, equal bool
		switch order.Field() {
		case "rent":
			less, equal = a.MonthlyRent.Amount < b.MonthlyRent.Amount, a.MonthlyRent.Amount == b.MonthlyRent.Amount
		case "surface":
			sa, sb := surface(a), surface(b)
			less, equal = sa < sb, sa == sb
		case "views":
			less, equal = a.ViewCount < b.ViewCount, a.ViewCount == b.ViewCount
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			return strings.Compare(string(a.ID), string(b.ID)) < 0
		}
		if order.Descending() {
			return !less
		}
		return less
	})
}

func surface(l *listings.Listing) int {
	if l.SurfaceArea == nil {
		return 0
	}
	return *l.SurfaceArea
}

var _ listings.Repository = listingRepo{}
