package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "rentdesk/internal/domain/listings"
)

// racingRepo reports slugs free while another writer grabs them before Save.
type racingRepo struct {
	domainlistings.Repository
	stored  map[string]bool
	pending []string
	saves   int
}

func (r *racingRepo) SlugTaken(_ context.Context, slug string, _ domainlistings.ListingID) (bool, error) {
	return r.stored[slug], nil
}

func (r *racingRepo) Save(_ context.Context, l *domainlistings.Listing) error {
	r.saves++
	if len(r.pending) > 0 {
		r.stored[r.pending[0]] = true
		r.pending = r.pending[1:]
	}
	if r.stored[l.Slug] {
		return domainlistings.ErrSlugTaken
	}
	r.stored[l.Slug] = true
	return nil
}

func TestInsertWithSlugRetriesOnce(t *testing.T) {
	repo := &racingRepo{stored: map[string]bool{}, pending: []string{"cozy-loft"}}
	l := &domainlistings.Listing{ID: "l-1", Title: "Cozy Loft"}

	require.NoError(t, insertWithSlug(context.Background(), repo, l))
	assert.Equal(t, "cozy-loft-1", l.Slug)
	assert.Equal(t, 2, repo.saves)
}

func TestInsertWithSlugGivesUpAfterSecondClash(t *testing.T) {
	repo := &racingRepo{stored: map[string]bool{}, pending: []string{"cozy-loft", "cozy-loft-1"}}
	l := &domainlistings.Listing{ID: "l-1", Title: "Cozy Loft"}

	err := insertWithSlug(context.Background(), repo, l)
	require.ErrorIs(t, err, domainlistings.ErrSlugTaken)
	assert.Equal(t, 2, repo.saves)
}
