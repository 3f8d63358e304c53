package listings_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/apptest"
	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/favorites"
	"rentdesk/internal/app/handlers/listings"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domainlistings "rentdesk/internal/domain/listings"
	domainreservations "rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/apperr"
)

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return "https://cdn.test/" + key, nil
}

func upload(h *apptest.Harness, actor policies.Actor, listingID, name string) (*dto.PhotoUploadResult, error) {
	return commands.Dispatch[listings.UploadPhotoCommand, *dto.PhotoUploadResult](context.Background(), h.Commands, listings.UploadPhotoCommand{
		Actor:       actor,
		ListingID:   listingID,
		FileName:    name,
		ContentType: "image/jpeg",
		Reader:      strings.NewReader("jpeg bytes"),
	})
}

func TestCreateListingAssignsUniqueSlugs(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	owner := h.Register(t, "OWNER", "olivia")

	first := h.Listing(t, owner, "Cozy Loft", "Lyon", 900)
	second := h.Listing(t, owner, "Cozy Loft", "Paris", 1100)
	assert.Equal(t, "cozy-loft", first.Slug)
	assert.Equal(t, "cozy-loft-1", second.Slug)

	title := "Cozy Loft with Balcony"
	updated, err := commands.Dispatch[listings.UpdateListingCommand, *dto.ListingDetail](ctx, h.Commands, listings.UpdateListingCommand{
		Actor:     owner,
		ListingID: first.ID,
		Title:     &title,
	})
	require.NoError(t, err)
	assert.Equal(t, "cozy-loft", updated.Slug, "slug survives title edits")

	bySlug, err := queries.Ask[listings.GetListingQuery, dto.ListingDetail](ctx, h.Queries, listings.GetListingQuery{IDOrSlug: "cozy-loft-1"})
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)
}

func TestDeleteListingCascades(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	owner := h.Register(t, "OWNER", "olivia")
	tenant := h.Register(t, "TENANT", "tom")
	other := h.Register(t, "OWNER", "oscar")

	doomed := h.Listing(t, owner, "Canal Studio", "Lyon", 800)
	kept := h.Listing(t, owner, "Garden House", "Lyon", 1500)

	_, err := h.Reserve(ctx, tenant, doomed.ID, apptest.Day(10), apptest.Day(20))
	require.NoError(t, err)
	_, err = h.Reserve(ctx, tenant, doomed.ID, apptest.Day(40), apptest.Day(45))
	require.NoError(t, err)
	_, err = commands.Dispatch[favorites.ToggleFavoriteCommand, *dto.FavoriteToggleResult](ctx, h.Commands, favorites.ToggleFavoriteCommand{
		Actor:     tenant,
		ListingID: doomed.ID,
		Action:    favorites.ActionAdd,
	})
	require.NoError(t, err)

	unit, err := h.Store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().AddPhoto(ctx, domainlistings.Photo{
		ID:        "ph-1",
		ListingID: domainlistings.ListingID(doomed.ID),
		URL:       "https://cdn.test/ph-1.jpg",
	}))
	require.NoError(t, unit.Commit(ctx))

	_, err = commands.Dispatch[listings.DeleteListingCommand, *dto.ListingDeleted](ctx, h.Commands, listings.DeleteListingCommand{Actor: other, ListingID: doomed.ID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	out, err := commands.Dispatch[listings.DeleteListingCommand, *dto.ListingDeleted](ctx, h.Commands, listings.DeleteListingCommand{Actor: owner, ListingID: doomed.ID})
	require.NoError(t, err)
	assert.Equal(t, doomed.ID, out.ID)
	assert.Equal(t, 2, out.ReservationsRemoved)

	_, err = queries.Ask[listings.GetListingQuery, dto.ListingDetail](ctx, h.Queries, listings.GetListingQuery{IDOrSlug: doomed.ID})
	require.ErrorIs(t, err, domainlistings.ErrNotFound)

	favs, err := queries.Ask[favorites.ListFavoritesQuery, dto.FavoriteList](ctx, h.Queries, favorites.ListFavoritesQuery{Actor: tenant})
	require.NoError(t, err)
	assert.Zero(t, favs.Total)
	assert.Empty(t, favs.Items)

	unit, err = h.Store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)

	page, err := unit.Reservations().List(ctx, domainreservations.Filter{ListingID: domainlistings.ListingID(doomed.ID)})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	o, err := unit.Profiles().OwnerByID(ctx, owner.OwnerID())
	require.NoError(t, err)
	assert.Equal(t, 1, o.TotalListings)
	assert.Zero(t, o.TotalReservations)

	tp, err := unit.Profiles().TenantByID(ctx, tenant.TenantID())
	require.NoError(t, err)
	assert.Zero(t, tp.TotalReservations)

	l, err := unit.Listings().ByID(ctx, domainlistings.ListingID(kept.ID))
	require.NoError(t, err)
	assert.Equal(t, "Garden House", l.Title)
}

func TestUploadPhotoPrimaryThenSecondary(t *testing.T) {
	uploader := &fakeUploader{}
	h := apptest.New(t, apptest.Options{Uploader: uploader})
	owner := h.Register(t, "OWNER", "olivia")
	tenant := h.Register(t, "TENANT", "tom")
	listing := h.Listing(t, owner, "Canal Studio", "Lyon", 800)

	first, err := upload(h, owner, listing.ID, "front.JPG")
	require.NoError(t, err)
	require.Len(t, uploader.keys, 1)
	assert.True(t, strings.HasPrefix(uploader.keys[0], "listings/"+listing.ID+"/"))
	assert.True(t, strings.HasSuffix(uploader.keys[0], ".jpg"))
	assert.Equal(t, "https://cdn.test/"+uploader.keys[0], first.PrimaryPhoto)
	assert.Empty(t, first.Photos)

	_, err = upload(h, owner, listing.ID, "kitchen.jpg")
	require.NoError(t, err)
	third, err := upload(h, owner, listing.ID, "bedroom.jpg")
	require.NoError(t, err)

	assert.Equal(t, first.PrimaryPhoto, third.PrimaryPhoto, "later uploads keep the primary photo")
	require.Len(t, third.Photos, 2)
	assert.Equal(t, 0, third.Photos[0].Position)
	assert.Equal(t, 1, third.Photos[1].Position)
	assert.Equal(t, "https://cdn.test/"+uploader.keys[2], third.Photos[1].URL)

	detail, err := queries.Ask[listings.GetListingQuery, dto.ListingDetail](context.Background(), h.Queries, listings.GetListingQuery{IDOrSlug: listing.ID})
	require.NoError(t, err)
	assert.Equal(t, first.PrimaryPhoto, detail.PrimaryPhoto)
	assert.Len(t, detail.Photos, 2)

	_, err = upload(h, tenant, listing.ID, "mine.jpg")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = commands.Dispatch[listings.UploadPhotoCommand, *dto.PhotoUploadResult](context.Background(), h.Commands, listings.UploadPhotoCommand{
		Actor:     owner,
		ListingID: listing.ID,
	})
	require.ErrorIs(t, err, listings.ErrPhotoRequired)
	assert.Len(t, uploader.keys, 3)
}

func TestUploadPhotoWithoutBucket(t *testing.T) {
	h := apptest.New(t)
	owner := h.Register(t, "OWNER", "olivia")
	listing := h.Listing(t, owner, "Canal Studio", "Lyon", 800)

	_, err := upload(h, owner, listing.ID, "front.jpg")
	require.Error(t, err)

	detail, err := queries.Ask[listings.GetListingQuery, dto.ListingDetail](context.Background(), h.Queries, listings.GetListingQuery{IDOrSlug: listing.ID})
	require.NoError(t, err)
	assert.Empty(t, detail.PrimaryPhoto)
}
