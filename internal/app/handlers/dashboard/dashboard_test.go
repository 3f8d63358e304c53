package dashboard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/apptest"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/dashboard"
	"rentdesk/internal/app/handlers/favorites"
	"rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
)

type scenario struct {
	h                  *apptest.Harness
	owner, tom, admin  policies.Actor
	loft, studio       *dto.ListingDetail
	paid, held, voided *dto.ReservationView
}

// newScenario books three stays on the owner's listings: one paid, one pending, one cancelled.
func newScenario(t *testing.T) scenario {
	t.Helper()
	h := apptest.New(t)
	ctx := context.Background()
	s := scenario{h: h}
	s.owner = h.Register(t, "OWNER", "olivia")
	s.tom = h.Register(t, "TENANT", "tom")
	s.admin = h.Admin(t)
	s.loft = h.Listing(t, s.owner, "Canal loft", "Paris", 300000)
	s.studio = h.Listing(t, s.owner, "Studio", "Lyon", 90000)

	var err error
	s.paid, err = h.Reserve(ctx, s.tom, s.loft.ID, apptest.Day(10), apptest.Day(40))
	require.NoError(t, err)
	s.held, err = h.Reserve(ctx, s.tom, s.studio.ID, apptest.Day(5), apptest.Day(8))
	require.NoError(t, err)
	s.voided, err = h.Reserve(ctx, s.tom, s.studio.ID, apptest.Day(50), apptest.Day(52))
	require.NoError(t, err)

	change := func(id string) reservations.StatusChange {
		return reservations.StatusChange{Actor: s.owner, ReservationID: id}
	}
	for _, cmd := range []commands.Command{
		reservations.ConfirmReservationCommand{StatusChange: change(s.paid.ID)},
		reservations.MarkPaidCommand{StatusChange: change(s.paid.ID)},
		reservations.CancelReservationCommand{StatusChange: change(s.voided.ID)},
		favorites.ToggleFavoriteCommand{Actor: s.tom, ListingID: s.studio.ID, Action: favorites.ActionAdd},
	} {
		_, err := h.Commands.Dispatch(ctx, cmd)
		require.NoError(t, err, cmd.Key())
	}
	return s
}

func TestOwnerDashboard(t *testing.T) {
	s := newScenario(t)
	out, err := queries.Ask[dashboard.OwnerDashboardQuery, dto.OwnerDashboard](context.Background(), s.h.Queries, dashboard.OwnerDashboardQuery{Actor: s.owner})
	require.NoError(t, err)

	assert.Equal(t, string(s.owner.OwnerID()), out.OwnerID)
	assert.Equal(t, 10.0, out.CommissionPercent)
	assert.Equal(t, dto.ListingCounts{Total: 2, Available: 1, Occupied: 1}, out.Listings)
	assert.Equal(t, 3, out.Reservations.Total)
	// Only RESERVED and CONFIRMED stays count as in progress.
	assert.Equal(t, 1, out.Reservations.InProgress)
	assert.Equal(t, 1, out.Reservations.Cancelled)
	assert.Equal(t, map[string]int{"PAID": 1, "RESERVED": 1, "CANCELLED": 1}, out.Reservations.ByStatus)
	assert.Equal(t, int64(300000), out.Revenue.Total.Amount)
	assert.Equal(t, int64(300000), out.Revenue.Month.Amount)
	require.NotNil(t, out.Revenue.Commission)
	assert.Equal(t, int64(30000), out.Revenue.Commission.Amount)
	require.Len(t, out.TopListings, 2)
	assert.Equal(t, s.studio.ID, out.TopListings[0].ID)
	assert.Len(t, out.RecentReservations, 3)
}

func TestOwnerDashboardAccess(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	_, err := queries.Ask[dashboard.OwnerDashboardQuery, dto.OwnerDashboard](ctx, s.h.Queries, dashboard.OwnerDashboardQuery{Actor: s.tom})
	assert.ErrorIs(t, err, policies.ErrNotAllowed)

	out, err := queries.Ask[dashboard.OwnerDashboardQuery, dto.OwnerDashboard](ctx, s.h.Queries, dashboard.OwnerDashboardQuery{Actor: s.admin, OwnerID: string(s.owner.OwnerID())})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Reservations.Total)
}

func TestTenantDashboard(t *testing.T) {
	s := newScenario(t)
	out, err := queries.Ask[dashboard.TenantDashboardQuery, dto.TenantDashboard](context.Background(), s.h.Queries, dashboard.TenantDashboardQuery{Actor: s.tom})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Upcoming)
	assert.Zero(t, out.Past)
	assert.Equal(t, int64(300000), out.TotalSpend.Amount)
	require.NotNil(t, out.NextReservation)
	assert.Equal(t, s.held.ID, out.NextReservation.ID)
	assert.Equal(t, 1, out.FavoritesCount)
}

func TestAdminStats(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	_, err := queries.Ask[dashboard.AdminStatsQuery, dto.AdminStats](ctx, s.h.Queries, dashboard.AdminStatsQuery{Actor: s.owner})
	assert.ErrorIs(t, err, policies.ErrNotAllowed)

	out, err := queries.Ask[dashboard.AdminStatsQuery, dto.AdminStats](ctx, s.h.Queries, dashboard.AdminStatsQuery{Actor: s.admin})
	require.NoError(t, err)
	assert.Equal(t, dto.AdminUserCounts{Total: 3, Tenants: 1, Owners: 1, Admins: 1}, out.Users)
	assert.Equal(t, 3, out.Reservations.Total)
	assert.Equal(t, 1, out.Reservations.Upcoming)
	assert.Equal(t, 1, out.Reservations.Cancelled)
	assert.Zero(t, out.Reservations.Active)
	assert.Equal(t, int64(300000), out.Revenue.Total.Amount)
	assert.Len(t, out.TopCities, 2)
	assert.Equal(t, 2, out.Listings.Total)
}
