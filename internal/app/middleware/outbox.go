package middleware

import (
	"context"
	"log/slog"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/outbox"
)

// OutboxFlush gives every command an event buffer and hands the buffered events to box once
// the inner chain (and its transaction) succeeded. Publication failures are logged only.
func OutboxFlush(box outbox.Outbox, encoder outbox.EventEncoder, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			execCtx, buf := outbox.WithBuffer(ctx)
			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			evs := buf.Events()
			if len(evs) == 0 {
				return res, nil
			}
			records, encErr := outbox.EncodeAll(encoder, evs)
			if encErr != nil {
				logger.ErrorContext(ctx, "outbox encode failed", "command", cmd.Key(), "error", encErr)
				return res, nil
			}
			if appendErr := box.Append(ctx, records...); appendErr != nil {
				logger.ErrorContext(ctx, "outbox append failed", "command", cmd.Key(), "events", len(records), "error", appendErr)
			}
			return res, nil
		})
	}
}
