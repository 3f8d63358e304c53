package memory

import (
	"context"
	"sort"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

type reservationRepo struct{ u *Unit }

func (r reservationRepo) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	row, ok := r.u.data.reservations[id]
	if !ok {
		return nil, reservations.ErrNotFound
	}
	return &row, nil
}

func (r reservationRepo) Save(ctx context.Context, res *reservations.Reservation) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.data.listings[res.ListingID]; !ok {
		return listings.ErrNotFound
	}
	row := *res
	row.ClearEvents()
	r.u.data.reservations[res.ID] = row
	return nil
}

func (r reservationRepo) Overlapping(ctx context.Context, listingID listings.ListingID, rng daterange.DateRange, statuses []reservations.Status, exclude reservations.ID) ([]*reservations.Reservation, error) {
	filter := reservations.Filter{ListingID: listingID, Statuses: statuses}
	var out []*reservations.Reservation
	for id, row := range r.u.data.reservations {
		if id == exclude || !filter.Matches(&row) || !row.Range.Overlaps(rng) {
			continue
		}
		found := row
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return reservations.SortStartAsc.Less(out[i], out[j]) })
	return out, nil
}

func (r reservationRepo) List(ctx context.Context, filter reservations.Filter) (reservations.Page, error) {
	opts := filter.Normalized()
	matches := r.match(opts)
	sort.Slice(matches, func(i, j int) bool { return opts.Sort.Less(matches[i], matches[j]) })
	page := reservations.Page{Total: len(matches), Limit: opts.Limit, Offset: opts.Offset}
	if opts.Offset < len(matches) {
		end := min(opts.Offset+opts.Limit, len(matches))
		page.Items = matches[opts.Offset:end]
	}
	return page, nil
}

func (r reservationRepo) Summarize(ctx context.Context, filter reservations.Filter) (reservations.Summary, error) {
	summary := reservations.Summary{Total: money.Zero(r.u.store.currency)}
	for _, row := range r.match(filter.Normalized()) {
		summary.Count++
		summary.Total.Amount += row.Total.Amount
	}
	return summary, nil
}

func (r reservationRepo) CountByStatus(ctx context.Context, filter reservations.Filter) (map[reservations.Status]int, error) {
	out := make(map[reservations.Status]int)
	for _, row := range r.match(filter.Normalized()) {
		out[row.Status]++
	}
	return out, nil
}

func (r reservationRepo) DeleteByListing(ctx context.Context, listingID listings.ListingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for id, row := range r.u.data.reservations {
		if row.ListingID == listingID {
			delete(r.u.data.reservations, id)
		}
	}
	return nil
}

func (r reservationRepo) match(filter reservations.Filter) []*reservations.Reservation {
	var out []*reservations.Reservation
	for _, row := range r.u.data.reservations {
		if !filter.Matches(&row) {
			continue
		}
		if filter.Owner != "" {
			listing, ok := r.u.data.listings[row.ListingID]
			if !ok || listing.Owner != filter.Owner {
				continue
			}
		}
		found := row
		out = append(out, &found)
	}
	return out
}

var _ reservations.Repository = reservationRepo{}
