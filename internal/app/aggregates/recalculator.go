package aggregates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/money"
)

const reconcilePageSize = 100

// Recalculator recomputes denormalized counters from their source rows. Every refresh
// overwrites the counter, so running it twice yields the same values.
type Recalculator struct {
	UoW         uow.UoWFactory
	Logger      *slog.Logger
	Currency    string
	MaxAttempts int
	BaseDelay   time.Duration
	Clock       func() time.Time
}

// RefreshOwner sets total listings and the reservation count across those listings.
func (r *Recalculator) RefreshOwner(ctx context.Context, unit uow.UnitOfWork, id profiles.OwnerID) error {
	owner, err := unit.Profiles().OwnerByID(ctx, id)
	if err != nil {
		return err
	}
	ids, err := unit.Listings().IDsByOwner(ctx, id)
	if err != nil {
		return err
	}
	summary, err := unit.Reservations().Summarize(ctx, reservations.Filter{Owner: id})
	if err != nil {
		return err
	}
	if !owner.SetTotals(len(ids), summary.Count, r.now()) {
		return nil
	}
	return unit.Profiles().UpdateOwnerTotals(ctx, owner)
}

// RefreshTenant sets the reservation count and the sum of paid totals.
func (r *Recalculator) RefreshTenant(ctx context.Context, unit uow.UnitOfWork, id profiles.TenantID) error {
	tenant, err := unit.Profiles().TenantByID(ctx, id)
	if err != nil {
		return err
	}
	all, err := unit.Reservations().Summarize(ctx, reservations.Filter{TenantID: id})
	if err != nil {
		return err
	}
	paid, err := unit.Reservations().Summarize(ctx, reservations.Filter{TenantID: id, Statuses: []reservations.Status{reservations.StatusPaid}})
	if err != nil {
		return err
	}
	spend := paid.Total
	if spend.Currency == "" {
		spend = money.Zero(r.currency(tenant))
	}
	if !tenant.SetTotals(all.Count, spend, r.now()) {
		return nil
	}
	return unit.Profiles().UpdateTenantTotals(ctx, tenant)
}

// RefreshListing sets the favorite count.
func (r *Recalculator) RefreshListing(ctx context.Context, unit uow.UnitOfWork, id listings.ListingID) error {
	listing, err := unit.Listings().ByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := unit.Favorites().CountByListing(ctx, id)
	if err != nil {
		return err
	}
	if !listing.SetFavoriteCount(count) {
		return nil
	}
	return unit.Listings().SetFavoriteCount(ctx, id, count)
}

// Refresh recomputes targets in one unit of work, retrying with exponential backoff.
func (r *Recalculator) Refresh(ctx context.Context, targets Targets) error {
	if targets.Empty() {
		return nil
	}
	attempts, err := retryWithBackoff(ctx, r.MaxAttempts, r.BaseDelay, func(ctx context.Context) error {
		return support.RunInUnit(ctx, r.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
			return r.refreshIn(ctx, unit, targets)
		})
	})
	if err != nil {
		return fmt.Errorf("aggregates: refresh failed after %d attempts: %w", attempts, err)
	}
	if attempts > 1 {
		r.logger().Warn("aggregates refreshed after retries", "attempts", attempts)
	}
	return nil
}

// RefreshAll walks every owner, tenant and listing.
func (r *Recalculator) RefreshAll(ctx context.Context) (Targets, error) {
	targets, err := r.allTargets(ctx)
	if err != nil {
		return targets, err
	}
	return targets, r.Refresh(ctx, targets)
}

func (r *Recalculator) allTargets(ctx context.Context) (Targets, error) {
	var targets Targets
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, r.UoW)
	if err != nil {
		return targets, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if targets.Owners, err = unit.Profiles().ListOwnerIDs(execCtx); err != nil {
		return targets, err
	}
	if targets.Tenants, err = unit.Profiles().ListTenantIDs(execCtx); err != nil {
		return targets, err
	}
	for offset := 0; ; offset += reconcilePageSize {
		page, err := unit.Listings().Search(execCtx, listings.SearchParams{Sort: listings.SortOldest, Limit: reconcilePageSize, Offset: offset})
		if err != nil {
			return targets, err
		}
		for _, l := range page.Items {
			targets.Listings = append(targets.Listings, l.ID)
		}
		if len(page.Items) < reconcilePageSize {
			break
		}
	}
	return targets, nil
}

func (r *Recalculator) refreshIn(ctx context.Context, unit uow.UnitOfWork, targets Targets) error {
	for _, id := range targets.Owners {
		if err := r.RefreshOwner(ctx, unit, id); err != nil {
			return fmt.Errorf("owner %s: %w", id, err)
		}
	}
	for _, id := range targets.Tenants {
		if err := r.RefreshTenant(ctx, unit, id); err != nil {
			return fmt.Errorf("tenant %s: %w", id, err)
		}
	}
	for _, id := range targets.Listings {
		err := r.RefreshListing(ctx, unit, id)
		if err != nil && !isMissingListing(err) {
			return fmt.Errorf("listing %s: %w", id, err)
		}
	}
	return nil
}

func (r *Recalculator) currency(t *profiles.TenantProfile) string {
	if t.TotalSpend.Currency != "" {
		return t.TotalSpend.Currency
	}
	return r.Currency
}

func (r *Recalculator) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Recalculator) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// A listing deleted in the same command has nothing left to count.
func isMissingListing(err error) bool {
	return errors.Is(err, listings.ErrNotFound)
}
