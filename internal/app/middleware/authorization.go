package middleware

import (
	"context"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
)

// ActorMessage is implemented by commands and queries issued on behalf of a user.
type ActorMessage interface {
	ActingUser() policies.Actor
}

// PublicMessage opts a message that carries an actor out of the authentication check.
type PublicMessage interface {
	AllowsAnonymous() bool
}

func requireActor(message any) error {
	m, ok := message.(ActorMessage)
	if !ok {
		return nil
	}
	if p, ok := message.(PublicMessage); ok && p.AllowsAnonymous() {
		return nil
	}
	if !m.ActingUser().Authenticated() {
		return policies.ErrUnauthenticated
	}
	return nil
}

// Authentication rejects actor-bound commands dispatched without an authenticated user.
// Ownership rules stay in the handlers, which load the entities they guard.
func Authentication() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := requireActor(cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthentication() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := requireActor(q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
