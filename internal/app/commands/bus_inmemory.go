package commands

import (
	"context"
	"fmt"
	"sort"
)

// Route describes one registration: the key and the Go types it accepts and returns.
type Route struct {
	Key     string
	Command string
	Result  string
}

type route struct {
	Route
	call func(ctx context.Context, cmd Command) (any, error)
}

// InMemoryBus routes commands by key. Register everything before the first Dispatch; the
// map is not guarded.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r.call(ctx, cmd)
}

// Routes returns the registrations sorted by key.
func (b *InMemoryBus) Routes() []Route {
	out := make([]Route, 0, len(b.routes))
	for _, r := range b.routes {
		out = append(out, r.Route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// RegisterHandler binds key to handler. It panics on an empty or repeated key since both
// are wiring mistakes.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	switch {
	case bus == nil:
		panic("commands: register on nil bus")
	case key == "":
		panic("commands: register with empty key")
	}
	if _, taken := bus.routes[key]; taken {
		panic("commands: " + key + " registered twice")
	}
	var (
		cmd C
		res R
	)
	bus.routes[key] = route{
		Route: Route{Key: key, Command: fmt.Sprintf("%T", cmd), Result: fmt.Sprintf("%T", res)},
		call: func(ctx context.Context, raw Command) (any, error) {
			typed, ok := raw.(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
			}
			return handler.Handle(ctx, typed)
		},
	}
}
