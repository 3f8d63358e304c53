package aggregates

import (
	"context"
	"sort"
	"sync"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
)

// Targets names the aggregates whose counters must be recomputed.
type Targets struct {
	Owners   []profiles.OwnerID
	Tenants  []profiles.TenantID
	Listings []listings.ListingID
}

func (t Targets) Empty() bool {
	return len(t.Owners) == 0 && len(t.Tenants) == 0 && len(t.Listings) == 0
}

// Tracker collects the aggregates touched by a command.
type Tracker struct {
	mu       sync.Mutex
	owners   map[profiles.OwnerID]struct{}
	tenants  map[profiles.TenantID]struct{}
	listings map[listings.ListingID]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		owners:   make(map[profiles.OwnerID]struct{}),
		tenants:  make(map[profiles.TenantID]struct{}),
		listings: make(map[listings.ListingID]struct{}),
	}
}

func (t *Tracker) Owner(id profiles.OwnerID) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.owners[id] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) Tenant(id profiles.TenantID) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.tenants[id] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) Listing(id listings.ListingID) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.listings[id] = struct{}{}
	t.mu.Unlock()
}

// Targets returns the collected ids sorted.
func (t *Tracker) Targets() Targets {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out Targets
	for id := range t.owners {
		out.Owners = append(out.Owners, id)
	}
	for id := range t.tenants {
		out.Tenants = append(out.Tenants, id)
	}
	for id := range t.listings {
		out.Listings = append(out.Listings, id)
	}
	sort.Slice(out.Owners, func(i, j int) bool { return out.Owners[i] < out.Owners[j] })
	sort.Slice(out.Tenants, func(i, j int) bool { return out.Tenants[i] < out.Tenants[j] })
	sort.Slice(out.Listings, func(i, j int) bool { return out.Listings[i] < out.Listings[j] })
	return out
}

type trackerKey struct{}

func WithTracker(ctx context.Context) (context.Context, *Tracker) {
	t := NewTracker()
	return context.WithValue(ctx, trackerKey{}, t), t
}

// FromContext returns the tracker of ctx. Without one a detached tracker is returned so
// handlers can touch aggregates unconditionally.
func FromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return NewTracker()
}
