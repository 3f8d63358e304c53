package gormdb

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

type reservationRepo struct{ u *Unit }

func (r reservationRepo) ByID(ctx context.Context, id reservations.ID) (*reservations.Reservation, error) {
	var m reservationModel
	if err := r.u.db(ctx).First(&m, "id = ?", string(id)).Error; err != nil {
		return nil, translate(err, reservations.ErrNotFound, nil)
	}
	return m.toDomain(), nil
}

func (r reservationRepo) Save(ctx context.Context, res *reservations.Reservation) error {
	var n int64
	if err := r.u.db(ctx).Model(&listingModel{}).Where("id = ?", string(res.ListingID)).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return listings.ErrNotFound
	}
	m := newReservationModel(res)
	return r.u.db(ctx).Save(&m).Error
}

func (r reservationRepo) Overlapping(ctx context.Context, listingID listings.ListingID, rng daterange.DateRange, statuses []reservations.Status, exclude reservations.ID) ([]*reservations.Reservation, error) {
	q := r.u.db(ctx).
		Where("listing_id = ?", string(listingID)).
		Where("start_date <= ? AND end_date >= ?", rng.End.UTC(), rng.Start.UTC())
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}
	if exclude != "" {
		q = q.Where("id <> ?", string(exclude))
	}
	var rows []reservationModel
	if err := q.Order("start_date").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReservations(rows), nil
}

func (r reservationRepo) List(ctx context.Context, filter reservations.Filter) (reservations.Page, error) {
	opts := filter.Normalized()
	q := r.filtered(ctx, opts).Session(&gorm.Session{})
	page := reservations.Page{Limit: opts.Limit, Offset: opts.Offset}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, err
	}
	page.Total = int(total)

	var rows []reservationModel
	err := q.Order(reservationOrder(opts.Sort)).Order("id").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return page, err
	}
	page.Items = toReservations(rows)
	return page, nil
}

func (r reservationRepo) Summarize(ctx context.Context, filter reservations.Filter) (reservations.Summary, error) {
	var row struct {
		Count int
		Total int64
	}
	err := r.filtered(ctx, filter.Normalized()).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return reservations.Summary{}, err
	}
	return reservations.Summary{
		Count: row.Count,
		Total: money.Money{Amount: row.Total, Currency: r.u.currency},
	}, nil
}

func (r reservationRepo) CountByStatus(ctx context.Context, filter reservations.Filter) (map[reservations.Status]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := r.filtered(ctx, filter.Normalized()).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[reservations.Status]int, len(rows))
	for _, row := range rows {
		out[reservations.Status(row.Status)] = row.Count
	}
	return out, nil
}

func (r reservationRepo) DeleteByListing(ctx context.Context, listingID listings.ListingID) error {
	return r.u.db(ctx).Where("listing_id = ?", string(listingID)).Delete(&reservationModel{}).Error
}

// filtered pushes every Filter field down to SQL. Normalization (lowercased emails, trimmed
// search) has already happened.
func (r reservationRepo) filtered(ctx context.Context, f reservations.Filter) *gorm.DB {
	q := r.u.db(ctx).Model(&reservationModel{})
	if f.ListingID != "" {
		q = q.Where("listing_id = ?", string(f.ListingID))
	}
	if f.Owner != "" {
		q = q.Where("listing_id IN (?)", r.u.db(ctx).Model(&listingModel{}).Select("id").Where("owner_id = ?", string(f.Owner)))
	}
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", string(f.TenantID))
	}
	if f.TenantEmail != "" {
		q = q.Where("tenant_email = ?", f.TenantEmail)
	}
	if f.Party != nil {
		switch {
		case f.Party.TenantID != "" && f.Party.Email != "":
			q = q.Where("(tenant_id = ? OR tenant_email = ?)", string(f.Party.TenantID), f.Party.Email)
		case f.Party.TenantID != "":
			q = q.Where("tenant_id = ?", string(f.Party.TenantID))
		case f.Party.Email != "":
			q = q.Where("tenant_email = ?", f.Party.Email)
		default:
			q = q.Where("1 = 0")
		}
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(tenant_name) LIKE ? OR tenant_email LIKE ?)", like, like)
	}
	if !f.ActiveOn.IsZero() {
		day := daterange.Day(f.ActiveOn)
		q = q.Where("start_date <= ? AND end_date >= ?", day, day)
	}
	if !f.StartsAfter.IsZero() {
		q = q.Where("start_date > ?", daterange.Day(f.StartsAfter))
	}
	if !f.EndsBefore.IsZero() {
		q = q.Where("end_date < ?", daterange.Day(f.EndsBefore))
	}
	if !f.EndsFrom.IsZero() {
		q = q.Where("end_date >= ?", daterange.Day(f.EndsFrom))
	}
	if !f.PaidFrom.IsZero() || !f.PaidUntil.IsZero() {
		q = q.Where("paid_at IS NOT NULL")
		if !f.PaidFrom.IsZero() {
			q = q.Where("paid_at >= ?", f.PaidFrom.UTC())
		}
		if !f.PaidUntil.IsZero() {
			q = q.Where("paid_at < ?", f.PaidUntil.UTC())
		}
	}
	return q
}

func reservationOrder(sort reservations.Sort) string {
	column := "reserved_at"
	switch sort.Field() {
	case "start":
		column = "start_date"
	case "end":
		column = "end_date"
	case "total":
		column = "total_amount"
	}
	if sort.Descending() {
		return column + " DESC"
	}
	return column + " ASC"
}

func statusStrings(statuses []reservations.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toReservations(rows []reservationModel) []*reservations.Reservation {
	out := make([]*reservations.Reservation, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

var _ reservations.Repository = reservationRepo{}
