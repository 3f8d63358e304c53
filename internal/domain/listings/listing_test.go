package listings

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/shared/money"
)

type slugSet map[string]ListingID

func (s slugSet) SlugTaken(_ context.Context, slug string, exclude ListingID) (bool, error) {
	owner, ok := s[slug]
	return ok && owner != exclude, nil
}

func validParams(id ListingID, title string) CreateParams {
	return CreateParams{
		ID:          id,
		Owner:       "owner-1",
		Title:       title,
		Address:     Address{Street: "12 rue Carnot", City: "Dakar"},
		MonthlyRent: money.Must(30000, "XOF"),
		RoomCount:   2,
		Now:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAssignSlugResolvesCollisions(t *testing.T) {
	ctx := context.Background()
	taken := slugSet{}

	first, err := NewListing(validParams("l-1", "Cozy Loft"))
	require.NoError(t, err)
	require.NoError(t, AssignSlug(ctx, taken, first))
	taken[first.Slug] = first.ID

	second, err := NewListing(validParams("l-2", "Cozy Loft"))
	require.NoError(t, err)
	require.NoError(t, AssignSlug(ctx, taken, second))
	taken[second.Slug] = second.ID

	third, err := NewListing(validParams("l-3", "cozy   LOFT!"))
	require.NoError(t, err)
	require.NoError(t, AssignSlug(ctx, taken, third))

	assert.Equal(t, "cozy-loft", first.Slug)
	assert.Equal(t, "cozy-loft-1", second.Slug)
	assert.Equal(t, "cozy-loft-2", third.Slug)
}

func TestAssignSlugKeepsExistingSlug(t *testing.T) {
	l, err := NewListing(validParams("l-1", "Old title"))
	require.NoError(t, err)
	require.NoError(t, AssignSlug(context.Background(), slugSet{}, l))

	title := "Brand new title"
	require.NoError(t, l.Update(UpdateParams{Title: &title}, time.Now()))
	require.NoError(t, AssignSlug(context.Background(), slugSet{}, l))
	assert.Equal(t, "old-title", l.Slug)
}

func TestSlugBaseBounds(t *testing.T) {
	long := SlugBase(strings.Repeat("a", 250))
	assert.Len(t, long, maxSlugBase)
	assert.Equal(t, fallbackSlug, SlugBase("!!!"))
	assert.Equal(t, "studio-meuble-plateau", SlugBase("Studio  meublé -- Plateau"))
}

func TestNewListingValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateParams)
		want   error
	}{
		"zero rent":      {func(p *CreateParams) { p.MonthlyRent = money.Must(0, "XOF") }, ErrMonthlyRent},
		"negative depot": {func(p *CreateParams) { p.Deposit = money.Must(-1, "XOF") }, ErrDeposit},
		"no rooms":       {func(p *CreateParams) { p.RoomCount = 0 }, ErrRoomCount},
		"no title":       {func(p *CreateParams) { p.Title = "  " }, ErrTitleRequired},
		"no city":        {func(p *CreateParams) { p.Address.City = "" }, ErrAddressRequired},
		"huge surface": {func(p *CreateParams) {
			area := 1001
			p.SurfaceArea = &area
		}, ErrSurfaceArea},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			params := validParams("l-1", "Loft")
			tc.mutate(&params)
			_, err := NewListing(params)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestNewListingDefaults(t *testing.T) {
	l, err := NewListing(validParams("l-1", "Loft"))
	require.NoError(t, err)
	assert.True(t, l.Available)
	assert.Equal(t, money.Zero("XOF"), l.Deposit)
	assert.True(t, l.HasOwner())
}

func TestUpdateIsAtomic(t *testing.T) {
	l, err := NewListing(validParams("l-1", "Loft"))
	require.NoError(t, err)
	title := "Renamed"
	rooms := 0
	err = l.Update(UpdateParams{Title: &title, RoomCount: &rooms}, time.Now())
	assert.ErrorIs(t, err, ErrRoomCount)
	assert.Equal(t, "Loft", l.Title)
}

func TestSearchParams(t *testing.T) {
	p := SearchParams{Sort: "bogus", Limit: 1000, Offset: -3}.Normalized()
	assert.Equal(t, SortNewest, p.Sort)
	assert.Equal(t, maxSearchLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.True(t, p.Sort.Descending())
	assert.Equal(t, "created", p.Sort.Field())

	l, err := NewListing(validParams("l-1", "Sea view loft"))
	require.NoError(t, err)
	yes := true
	assert.True(t, SearchParams{Available: &yes, City: "dakar", Text: "SEA"}.Matches(l))
	assert.False(t, SearchParams{RoomCount: 3}.Matches(l))
}
