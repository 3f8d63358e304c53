// Package availability answers whether a listing is free for a date range and keeps the
// listing's available flag in line with its confirmed reservations.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

// HoldPolicy decides which reservations block a new booking request.
type HoldPolicy string

const (
	// HoldSoft lets several RESERVED requests overlap; confirmation settles the contention.
	HoldSoft HoldPolicy = "soft"
	// HoldStrict rejects a request overlapping any live reservation, RESERVED holds
	// included, so the first request keeps the dates until it is cancelled.
	HoldStrict HoldPolicy = "strict"
)

func ParseHoldPolicy(raw string) (HoldPolicy, error) {
	switch HoldPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", HoldSoft:
		return HoldSoft, nil
	case HoldStrict:
		return HoldStrict, nil
	}
	return "", fmt.Errorf("availability: unknown hold policy %q", raw)
}

type Engine struct {
	Policy HoldPolicy
	Clock  func() time.Time
}

// HasConflict reports whether a RESERVED, CONFIRMED or PAID reservation of the listing other
// than exclude overlaps rng, boundary days included. It has no side effects.
func (e Engine) HasConflict(ctx context.Context, repo reservations.Repository, listingID listings.ListingID, rng daterange.DateRange, exclude reservations.ID) (bool, error) {
	return e.overlaps(ctx, repo, listingID, rng, reservations.HoldingStatuses, exclude)
}

// CheckRequest validates a new booking request against the hold policy.
func (e Engine) CheckRequest(ctx context.Context, repo reservations.Repository, listingID listings.ListingID, rng daterange.DateRange) error {
	statuses := reservations.BlockingStatuses
	if e.Policy == HoldStrict {
		statuses = reservations.HoldingStatuses
	}
	conflict, err := e.overlaps(ctx, repo, listingID, rng, statuses, "")
	if err != nil {
		return err
	}
	if conflict {
		return reservations.ErrDatesUnavailable
	}
	return nil
}

// CheckConfirmation rejects r when another CONFIRMED or PAID reservation overlaps it.
func (e Engine) CheckConfirmation(ctx context.Context, repo reservations.Repository, r *reservations.Reservation) error {
	conflict, err := e.overlaps(ctx, repo, r.ListingID, r.Range, reservations.BlockingStatuses, r.ID)
	if err != nil {
		return err
	}
	if conflict {
		return reservations.ErrOverlapsConfirmed
	}
	return nil
}

// Available reports whether no CONFIRMED or PAID reservation of the listing ends today or later.
func (e Engine) Available(ctx context.Context, repo reservations.Repository, listingID listings.ListingID) (bool, error) {
	page, err := repo.List(ctx, reservations.Filter{
		ListingID: listingID,
		Statuses:  reservations.BlockingStatuses,
		EndsFrom:  daterange.Day(e.now()),
		Limit:     1,
	})
	if err != nil {
		return false, err
	}
	return page.Total == 0, nil
}

// RefreshListing recomputes the available flag of l and saves it when it changed.
func (e Engine) RefreshListing(ctx context.Context, listingRepo listings.Repository, repo reservations.Repository, l *listings.Listing) (bool, error) {
	available, err := e.Available(ctx, repo, l.ID)
	if err != nil {
		return false, err
	}
	if !l.SetAvailability(available, e.now()) {
		return false, nil
	}
	return true, listingRepo.Save(ctx, l)
}

func (e Engine) overlaps(ctx context.Context, repo reservations.Repository, listingID listings.ListingID, rng daterange.DateRange, statuses []reservations.Status, exclude reservations.ID) (bool, error) {
	found, err := repo.Overlapping(ctx, listingID, rng, statuses, exclude)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (e Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}
