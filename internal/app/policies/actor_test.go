package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/user"
)

func ownerActor(id profiles.OwnerID) Actor {
	return Actor{UserID: "u-owner", Role: user.RoleOwner, Account: profiles.OwnerAccount(&profiles.OwnerProfile{ID: id})}
}

func tenantActor(id profiles.TenantID, email string) Actor {
	return Actor{UserID: "u-tenant", Email: email, Role: user.RoleTenant, Account: profiles.TenantAccount(&profiles.TenantProfile{ID: id})}
}

func TestListingPredicates(t *testing.T) {
	l := &listings.Listing{ID: "l-1", Owner: "o-1"}
	admin := Actor{UserID: "u-admin", Role: user.RoleAdmin, Account: profiles.NoAccount()}

	assert.True(t, IsAdmin(admin))
	assert.True(t, CanManageListing(admin, l))
	assert.True(t, IsOwnerOf(ownerActor("o-1"), l))
	assert.False(t, IsOwnerOf(ownerActor("o-2"), l))
	assert.False(t, IsOwnerOf(ownerActor("o-1"), &listings.Listing{ID: "l-2"}))
	assert.False(t, CanManageListing(tenantActor("t-1", "a@example.com"), l))
	assert.False(t, IsAdmin(Actor{Role: user.RoleAdmin}))
}

func TestCanCancel(t *testing.T) {
	l := &listings.Listing{ID: "l-1", Owner: "o-1"}
	linked := &reservations.Reservation{TenantID: "t-1", Tenant: reservations.TenantSnapshot{Email: "a@example.com"}}
	guest := &reservations.Reservation{Tenant: reservations.TenantSnapshot{Email: "a@example.com"}}

	assert.True(t, CanCancel(tenantActor("t-1", "x@example.com"), l, linked))
	assert.False(t, CanCancel(tenantActor("t-2", "a@example.com"), l, linked))
	assert.True(t, CanCancel(Actor{UserID: "u-9", Email: "A@example.com", Role: user.RoleTenant}, l, guest))
	assert.True(t, CanCancel(ownerActor("o-1"), l, linked))
	assert.False(t, CanCancel(Actor{}, l, guest))
	assert.ErrorIs(t, Require(false), ErrNotAllowed)
	assert.NoError(t, Require(true))
}
