package favorites_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/apptest"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/favorites"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/shared/apperr"
)

func toggle(h *apptest.Harness, actor policies.Actor, listingID, action string) (*dto.FavoriteToggleResult, error) {
	return commands.Dispatch[favorites.ToggleFavoriteCommand, *dto.FavoriteToggleResult](context.Background(), h.Commands, favorites.ToggleFavoriteCommand{
		Actor:     actor,
		ListingID: listingID,
		Action:    action,
	})
}

func TestToggleIsIdempotent(t *testing.T) {
	h := apptest.New(t)
	owner := h.Register(t, "OWNER", "olivia")
	tom := h.Register(t, "TENANT", "tom")
	loft := h.Listing(t, owner, "Canal loft", "Paris", 300000)
	studio := h.Listing(t, owner, "Studio", "Lyon", 80000)

	for i := 0; i < 2; i++ {
		res, err := toggle(h, tom, loft.ID, "add")
		require.NoError(t, err)
		assert.True(t, res.Favorited)
		assert.Equal(t, 1, res.FavoritesCount)
	}
	res, err := toggle(h, tom, studio.ID, "ADD")
	require.NoError(t, err)
	assert.Equal(t, 2, res.FavoritesCount)

	list, err := queries.Ask[favorites.ListFavoritesQuery, dto.FavoriteList](context.Background(), h.Queries, favorites.ListFavoritesQuery{Actor: tom})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 1, list.Items[0].Listing.FavoriteCount)

	for i := 0; i < 2; i++ {
		res, err = toggle(h, tom, loft.ID, "remove")
		require.NoError(t, err)
		assert.False(t, res.Favorited)
		assert.Equal(t, 1, res.FavoritesCount)
	}
}

func TestToggleRejections(t *testing.T) {
	h := apptest.New(t)
	owner := h.Register(t, "OWNER", "olivia")
	tom := h.Register(t, "TENANT", "tom")
	loft := h.Listing(t, owner, "Canal loft", "Paris", 300000)

	_, err := toggle(h, owner, loft.ID, "add")
	assert.ErrorIs(t, err, favorites.ErrTenantOnly)

	_, err = toggle(h, tom, loft.ID, "star")
	assert.ErrorIs(t, err, favorites.ErrUnknownAction)

	_, err = toggle(h, tom, "missing", "add")
	assert.ErrorIs(t, err, listings.ErrNotFound)

	_, err = toggle(h, tom, "", "add")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = queries.Ask[favorites.ListFavoritesQuery, dto.FavoriteList](context.Background(), h.Queries, favorites.ListFavoritesQuery{Actor: owner})
	assert.ErrorIs(t, err, favorites.ErrTenantOnly)
}
