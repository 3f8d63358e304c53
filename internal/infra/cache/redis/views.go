package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentdesk/internal/app/handlers/listings"
)

// ViewGate counts a listing view once per viewer within Window. The first SET NX wins; later
// views inside the window find the key and are not counted.
type ViewGate struct {
	Client *goredis.Client
	Window time.Duration
}

func (g *ViewGate) FirstView(ctx context.Context, listingID, viewer string) (bool, error) {
	window := g.Window
	if window <= 0 {
		window = 30 * time.Minute
	}
	return g.Client.SetNX(ctx, viewKey(listingID, viewer), 1, window).Result()
}

func viewKey(listingID, viewer string) string {
	return keyPrefix + "views:" + listingID + ":" + viewer
}

var _ listings.ViewGate = (*ViewGate)(nil)
