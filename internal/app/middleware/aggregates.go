package middleware

import (
	"context"
	"log/slog"

	"rentdesk/internal/app/aggregates"
	"rentdesk/internal/app/commands"
)

type Refresher interface {
	Refresh(ctx context.Context, targets aggregates.Targets) error
}

// Aggregates recomputes the counters touched by a command after its transaction committed.
// A refresh that keeps failing is reported as an alert; the command still succeeds and the
// periodic reconciliation repairs the counters.
func Aggregates(refresher Refresher, logger *slog.Logger) CommandMiddleware {
	if refresher == nil {
		panic("middleware: refresher required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			execCtx, tracker := aggregates.WithTracker(ctx)
			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			targets := tracker.Targets()
			if targets.Empty() {
				return res, nil
			}
			if refreshErr := refresher.Refresh(ctx, targets); refreshErr != nil {
				logger.ErrorContext(ctx, "aggregate recalculation exhausted retries",
					"alert", true,
					"command", cmd.Key(),
					"owners", len(targets.Owners),
					"tenants", len(targets.Tenants),
					"listings", len(targets.Listings),
					"error", refreshErr,
				)
			}
			return res, nil
		})
	}
}
