package middleware

import (
	"context"
	"fmt"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/shared/apperr"
)

// Validator checks a command or query before any handler work happens.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects malformed commands before a unit of work is opened.
func Validation(v Validator) CommandMiddleware {
	mustValidator(v)
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := check(ctx, v, cmd.Key(), cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	mustValidator(v)
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := check(ctx, v, q.Key(), q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

func mustValidator(v Validator) {
	if v == nil {
		panic("middleware: validator required")
	}
}

// check always answers with a validation error. Failures the validator did not
// classify itself are wrapped so transports map them to 400 instead of 500.
func check(ctx context.Context, v Validator, key string, message any) error {
	err := v.Validate(ctx, message)
	if err == nil || apperr.Kind(err) == apperr.ErrValidation {
		return err
	}
	return apperr.Wrap(apperr.ErrValidation, fmt.Errorf("%s: %w", key, err))
}
