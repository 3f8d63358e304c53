package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rentdesk/internal/domain/shared/apperr"
)

func TestRetryWithBackoffRetriesTransientFailures(t *testing.T) {
	calls := 0
	attempts, err := retryWithBackoff(context.Background(), 4, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	permanent := apperr.New(apperr.ErrNotFound, "owner missing")
	attempts, err := retryWithBackoff(context.Background(), 4, time.Millisecond, func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffGivesUp(t *testing.T) {
	attempts, err := retryWithBackoff(context.Background(), 2, time.Millisecond, func(context.Context) error {
		return errors.New("timeout")
	})
	assert.EqualError(t, err, "timeout")
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoffHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts, err := retryWithBackoff(ctx, 5, time.Hour, func(context.Context) error {
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestTrackerDeduplicatesAndSorts(t *testing.T) {
	ctx, tracker := WithTracker(context.Background())
	FromContext(ctx).Owner("o-2")
	FromContext(ctx).Owner("o-1")
	FromContext(ctx).Owner("o-2")
	FromContext(ctx).Tenant("")
	FromContext(ctx).Listing("l-1")

	targets := tracker.Targets()
	assert.Equal(t, []string{"o-1", "o-2"}, []string{string(targets.Owners[0]), string(targets.Owners[1])})
	assert.Empty(t, targets.Tenants)
	assert.Len(t, targets.Listings, 1)
	assert.False(t, targets.Empty())

	detached := FromContext(context.Background())
	detached.Owner("o-9")
	assert.Len(t, tracker.Targets().Owners, 2)
}
