// Package dashboard computes the owner, tenant and admin overviews from live rows.
package dashboard

import (
	"context"
	"sort"
	"time"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
	"rentdesk/internal/domain/user"
)

const (
	OwnerDashboardKey  = "dashboard.owner"
	TenantDashboardKey = "dashboard.tenant"
	AdminStatsKey      = "dashboard.admin"

	topListingsLimit = 5
	topCitiesLimit   = 5
	recentLimit      = 5
)

var (
	liveStatuses     = []reservations.Status{reservations.StatusReserved, reservations.StatusConfirmed}
	paidStatus       = []reservations.Status{reservations.StatusPaid}
	completedStatus  = []reservations.Status{reservations.StatusCompleted}
	cancelledStatus  = []reservations.Status{reservations.StatusCancelled}
	availableListing = true
	occupiedListing  = false
)

// Handler serves the three dashboards. They share the read-only unit helpers and the clock.
type Handler struct {
	UoW      uow.UoWFactory
	Currency string
	Clock    func() time.Time
}

type OwnerDashboardQuery struct {
	Actor policies.Actor

	// OwnerID lets an admin look at an owner's dashboard.
	OwnerID string
}

func (q OwnerDashboardQuery) Key() string                { return OwnerDashboardKey }
func (q OwnerDashboardQuery) ActingUser() policies.Actor { return q.Actor }

func (h *Handler) OwnerDashboard(ctx context.Context, q OwnerDashboardQuery) (dto.OwnerDashboard, error) {
	ownerID := q.Actor.OwnerID()
	if policies.IsAdmin(q.Actor) && q.OwnerID != "" {
		ownerID = profiles.OwnerID(q.OwnerID)
	}
	if err := policies.Require(ownerID != ""); err != nil {
		return dto.OwnerDashboard{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	owner, err := unit.Profiles().OwnerByID(ctx, ownerID)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	today := h.today()
	c := counter{ctx: ctx, repo: unit.Reservations()}
	scope := reservations.Filter{Owner: ownerID}

	out := dto.OwnerDashboard{OwnerID: string(owner.ID), CommissionPercent: owner.CommissionPercent()}
	if out.Listings, err = h.listingCounts(ctx, unit.Listings(), ownerID); err != nil {
		return dto.OwnerDashboard{}, err
	}

	out.Reservations.Total = c.count(scope)
	out.Reservations.InProgress = c.count(with(scope, func(f *reservations.Filter) {
		f.Statuses = liveStatuses
		f.EndsFrom = today
	}))
	out.Reservations.Completed = c.count(with(scope, func(f *reservations.Filter) { f.Statuses = completedStatus }))
	out.Reservations.Cancelled = c.count(with(scope, func(f *reservations.Filter) { f.Statuses = cancelledStatus }))
	byStatus, err := unit.Reservations().CountByStatus(ctx, scope)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	out.Reservations.ByStatus = make(map[string]int, len(byStatus))
	for status, n := range byStatus {
		out.Reservations.ByStatus[string(status)] = n
	}

	revenue := c.sum(with(scope, func(f *reservations.Filter) { f.Statuses = paidStatus }), h.Currency)
	out.Revenue = h.revenue(&c, scope, revenue)
	commission := dto.MapMoney(revenue.BasisPoints(owner.CommissionBP))
	out.Revenue.Commission = &commission

	if out.TopListings, err = h.topListings(ctx, unit, ownerID); err != nil {
		return dto.OwnerDashboard{}, err
	}
	recent, err := unit.Reservations().List(ctx, with(scope, func(f *reservations.Filter) {
		f.Sort = reservations.SortReservedDesc
		f.Limit = recentLimit
	}))
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	out.RecentReservations = dto.MapReservationPage(recent).Items
	if c.err != nil {
		return dto.OwnerDashboard{}, c.err
	}
	return out, nil
}

func (h *Handler) topListings(ctx context.Context, unit uow.UnitOfWork, owner profiles.OwnerID) ([]dto.TopListing, error) {
	ids, err := unit.Listings().IDsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	c := counter{ctx: ctx, repo: unit.Reservations()}
	top := make([]dto.TopListing, 0, len(ids))
	for _, id := range ids {
		listing, err := unit.Listings().ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		scope := reservations.Filter{ListingID: id}
		top = append(top, dto.TopListing{
			ID:           string(id),
			Title:        listing.Title,
			Reservations: c.count(scope),
			Revenue:      dto.MapMoney(c.sum(with(scope, func(f *reservations.Filter) { f.Statuses = paidStatus }), h.Currency)),
		})
	}
	if c.err != nil {
		return nil, c.err
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Reservations != top[j].Reservations {
			return top[i].Reservations > top[j].Reservations
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > topListingsLimit {
		top = top[:topListingsLimit]
	}
	return top, nil
}

type TenantDashboardQuery struct {
	Actor policies.Actor
}

func (q TenantDashboardQuery) Key() string                { return TenantDashboardKey }
func (q TenantDashboardQuery) ActingUser() policies.Actor { return q.Actor }

// TenantDashboard also serves tenants without a profile, matched by their email.
func (h *Handler) TenantDashboard(ctx context.Context, q TenantDashboardQuery) (dto.TenantDashboard, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.TenantDashboard{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	tenant := q.Actor.TenantID()
	scope := reservations.Filter{Party: &reservations.TenantParty{TenantID: tenant, Email: q.Actor.Email}}
	today := h.today()
	c := counter{ctx: ctx, repo: unit.Reservations()}

	out := dto.TenantDashboard{TenantID: string(tenant)}
	out.Total = c.count(scope)
	upcoming := with(scope, func(f *reservations.Filter) {
		f.Statuses = liveStatuses
		f.StartsAfter = today
	})
	out.Upcoming = c.count(upcoming)
	out.Past = c.count(with(scope, func(f *reservations.Filter) { f.EndsBefore = today }))
	out.TotalSpend = dto.MapMoney(c.sum(with(scope, func(f *reservations.Filter) { f.Statuses = paidStatus }), h.Currency))
	if c.err != nil {
		return dto.TenantDashboard{}, c.err
	}

	next, err := unit.Reservations().List(ctx, with(upcoming, func(f *reservations.Filter) {
		f.Sort = reservations.SortStartAsc
		f.Limit = 1
	}))
	if err != nil {
		return dto.TenantDashboard{}, err
	}
	if len(next.Items) > 0 {
		view := dto.MapReservation(next.Items[0])
		out.NextReservation = &view
	}
	if tenant != "" {
		if out.FavoritesCount, err = unit.Favorites().CountByTenant(ctx, tenant); err != nil {
			return dto.TenantDashboard{}, err
		}
	}
	return out, nil
}

type AdminStatsQuery struct {
	Actor policies.Actor
}

func (q AdminStatsQuery) Key() string                { return AdminStatsKey }
func (q AdminStatsQuery) ActingUser() policies.Actor { return q.Actor }

func (h *Handler) AdminStats(ctx context.Context, q AdminStatsQuery) (dto.AdminStats, error) {
	if err := policies.Require(policies.IsAdmin(q.Actor)); err != nil {
		return dto.AdminStats{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoW)
	if err != nil {
		return dto.AdminStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	today := h.today()
	c := counter{ctx: ctx, repo: unit.Reservations()}
	var out dto.AdminStats

	if out.Listings, err = h.listingCounts(ctx, unit.Listings(), ""); err != nil {
		return dto.AdminStats{}, err
	}
	cities, err := unit.Listings().TopCities(ctx, topCitiesLimit)
	if err != nil {
		return dto.AdminStats{}, err
	}
	out.TopCities = make([]dto.CityStat, 0, len(cities))
	for _, city := range cities {
		out.TopCities = append(out.TopCities, dto.CityStat{City: city.City, Count: city.Count})
	}

	roles, err := unit.Users().CountByRole(ctx)
	if err != nil {
		return dto.AdminStats{}, err
	}
	out.Users = dto.AdminUserCounts{
		Tenants: roles[user.RoleTenant],
		Owners:  roles[user.RoleOwner],
		Admins:  roles[user.RoleAdmin],
	}
	for _, n := range roles {
		out.Users.Total += n
	}

	all := reservations.Filter{}
	out.Reservations.Total = c.count(all)
	out.Reservations.Active = c.count(reservations.Filter{Statuses: reservations.HoldingStatuses, ActiveOn: today})
	out.Reservations.Upcoming = c.count(reservations.Filter{Statuses: liveStatuses, StartsAfter: today})
	out.Reservations.Completed = c.count(reservations.Filter{Statuses: completedStatus})
	out.Reservations.Cancelled = c.count(reservations.Filter{Statuses: cancelledStatus})
	out.Revenue = h.revenue(&c, all, c.sum(reservations.Filter{Statuses: paidStatus}, h.Currency))
	if c.err != nil {
		return dto.AdminStats{}, c.err
	}
	return out, nil
}

func (h *Handler) listingCounts(ctx context.Context, repo listings.Repository, owner profiles.OwnerID) (dto.ListingCounts, error) {
	count := func(available *bool) (int, error) {
		res, err := repo.Search(ctx, listings.SearchParams{Owner: owner, Available: available, Limit: 1}.Normalized())
		return res.Total, err
	}
	var out dto.ListingCounts
	var err error
	if out.Total, err = count(nil); err != nil {
		return out, err
	}
	if out.Available, err = count(&availableListing); err != nil {
		return out, err
	}
	if out.Occupied, err = count(&occupiedListing); err != nil {
		return out, err
	}
	return out, nil
}

// revenue reports the paid total and what was paid in the current calendar month.
func (h *Handler) revenue(c *counter, scope reservations.Filter, total money.Money) dto.RevenueSummary {
	monthStart := monthStart(h.now())
	month := c.sum(with(scope, func(f *reservations.Filter) {
		f.Statuses = paidStatus
		f.PaidFrom = monthStart
		f.PaidUntil = monthStart.AddDate(0, 1, 0)
	}), h.Currency)
	return dto.RevenueSummary{Total: dto.MapMoney(total), Month: dto.MapMoney(month)}
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func (h *Handler) today() time.Time { return daterange.Day(h.now()) }

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func with(f reservations.Filter, edit func(*reservations.Filter)) reservations.Filter {
	edit(&f)
	return f
}

// counter runs several aggregate reads and keeps the first error.
type counter struct {
	ctx  context.Context
	repo reservations.Repository
	err  error
}

func (c *counter) count(f reservations.Filter) int {
	if c.err != nil {
		return 0
	}
	s, err := c.repo.Summarize(c.ctx, f)
	c.err = err
	return s.Count
}

func (c *counter) sum(f reservations.Filter, currency string) money.Money {
	if c.err != nil {
		return money.Zero(currency)
	}
	s, err := c.repo.Summarize(c.ctx, f)
	c.err = err
	if s.Total.Currency == "" {
		return money.Zero(currency)
	}
	return s.Total
}

type OwnerDashboardHandler struct{ *Handler }

func (h OwnerDashboardHandler) Handle(ctx context.Context, q OwnerDashboardQuery) (dto.OwnerDashboard, error) {
	return h.OwnerDashboard(ctx, q)
}

type TenantDashboardHandler struct{ *Handler }

func (h TenantDashboardHandler) Handle(ctx context.Context, q TenantDashboardQuery) (dto.TenantDashboard, error) {
	return h.TenantDashboard(ctx, q)
}

type AdminStatsHandler struct{ *Handler }

func (h AdminStatsHandler) Handle(ctx context.Context, q AdminStatsQuery) (dto.AdminStats, error) {
	return h.AdminStats(ctx, q)
}

var (
	_ queries.Handler[OwnerDashboardQuery, dto.OwnerDashboard]   = OwnerDashboardHandler{}
	_ queries.Handler[TenantDashboardQuery, dto.TenantDashboard] = TenantDashboardHandler{}
	_ queries.Handler[AdminStatsQuery, dto.AdminStats]           = AdminStatsHandler{}
)
