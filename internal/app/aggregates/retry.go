package aggregates

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"rentdesk/internal/domain/shared/apperr"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 20 * time.Millisecond
	defaultJitterFactor = 0.3
)

// retryWithBackoff runs fn until it succeeds, fails permanently, or maxAttempts is reached.
// Delays grow as baseDelay * 2^(attempt-1) plus jitter.
func retryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(ctx context.Context) error) (int, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = defaultBaseDelay
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * defaultJitterFactor //nolint:gosec // jitter only
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return attempt, ctx.Err()
			}
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if !retryable(lastErr) {
			return attempt + 1, lastErr
		}
	}
	return maxAttempts, lastErr
}

// retryable excludes caller mistakes and cancellation. Store failures and lock timeouts are retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch apperr.Kind(err) {
	case apperr.ErrValidation, apperr.ErrNotFound, apperr.ErrForbidden:
		return false
	}
	return true
}
