package queries

import (
	"context"
	"fmt"
	"sort"
)

type Route struct {
	Key    string
	Query  string
	Result string
}

type route struct {
	Route
	call func(ctx context.Context, q Query) (any, error)
}

type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	r, ok := b.routes[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return r.call(ctx, query)
}

func (b *InMemoryBus) Routes() []Route {
	out := make([]Route, 0, len(b.routes))
	for _, r := range b.routes {
		out = append(out, r.Route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	switch {
	case bus == nil:
		panic("queries: register on nil bus")
	case key == "":
		panic("queries: register with empty key")
	}
	if _, taken := bus.routes[key]; taken {
		panic("queries: " + key + " registered twice")
	}
	var (
		q   Q
		res R
	)
	bus.routes[key] = route{
		Route: Route{Key: key, Query: fmt.Sprintf("%T", q), Result: fmt.Sprintf("%T", res)},
		call: func(ctx context.Context, raw Query) (any, error) {
			typed, ok := raw.(Q)
			if !ok {
				return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
			}
			return handler.Handle(ctx, typed)
		},
	}
}
