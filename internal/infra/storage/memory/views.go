package memory

import (
	"context"
	"sync"
	"time"
)

// ViewGate is the in-process view deduplicator used when Redis is not configured.
type ViewGate struct {
	Window time.Duration
	Clock  func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func (g *ViewGate) FirstView(_ context.Context, listingID, viewer string) (bool, error) {
	now := time.Now()
	if g.Clock != nil {
		now = g.Clock()
	}
	window := g.Window
	if window <= 0 {
		window = 30 * time.Minute
	}
	key := listingID + "|" + viewer

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]time.Time)
	}
	if until, ok := g.seen[key]; ok && now.Before(until) {
		return false, nil
	}
	for k, until := range g.seen {
		if !now.Before(until) {
			delete(g.seen, k)
		}
	}
	g.seen[key] = now.Add(window)
	return true, nil
}
