package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/apptest"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/services/auth"
	domainauth "rentdesk/internal/domain/auth"
	domainuser "rentdesk/internal/domain/user"
)

func TestRegisterCreatesMatchingProfile(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()

	res, err := h.Auth.Register(ctx, auth.RegisterParams{
		Username:    "olivia",
		Email:       "Olivia@Example.com",
		Password:    "correct-horse",
		Role:        "owner",
		Siret:       "12345678901234",
		CompanyName: "Olivia Homes",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "olivia@example.com", res.User.Email)
	assert.NotEmpty(t, res.Actor.OwnerID())
	assert.Empty(t, res.Actor.TenantID())

	tenant := h.Register(t, "", "tom")
	assert.NotEmpty(t, tenant.TenantID(), "role defaults to tenant")
}

func TestRegisterRejections(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	h.Register(t, "TENANT", "tom")

	_, err := h.Auth.Register(ctx, auth.RegisterParams{Username: "eve", Email: "eve@example.com", Password: "correct-horse", Role: "ADMIN"})
	assert.ErrorIs(t, err, auth.ErrAdminSelfSignup)

	_, err = h.Auth.Register(ctx, auth.RegisterParams{Username: "eve", Email: "eve@example.com", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, err = h.Auth.Register(ctx, auth.RegisterParams{Username: "tommy", Email: "TOM@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)

	_, err = h.Auth.Register(ctx, auth.RegisterParams{Username: "tom", Email: "other@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, domainuser.ErrUsernameTaken)
}

func TestLoginAndSessions(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	tom := h.Register(t, "TENANT", "tom")

	byName, err := h.Auth.Login(ctx, auth.LoginParams{Login: "tom", Password: "correct-horse"})
	require.NoError(t, err)
	byEmail, err := h.Auth.Login(ctx, auth.LoginParams{Login: "tom@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEqual(t, byName.Token, byEmail.Token)

	_, err = h.Auth.Login(ctx, auth.LoginParams{Login: "tom", Password: "wrong-horse"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = h.Auth.Login(ctx, auth.LoginParams{Login: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	actor, err := h.Auth.ResolveToken(ctx, byName.Token)
	require.NoError(t, err)
	assert.Equal(t, tom.UserID, actor.UserID)
	assert.Equal(t, tom.TenantID(), actor.TenantID())

	require.NoError(t, h.Auth.Logout(ctx, byName.Token))
	_, err = h.Auth.ResolveToken(ctx, byName.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = h.Auth.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	h.Register(t, "TENANT", "tom")
	res, err := h.Auth.Login(ctx, auth.LoginParams{Login: "tom", Password: "correct-horse"})
	require.NoError(t, err)

	h.Auth.Clock = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = h.Auth.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestUpdateProfileSyncsTenant(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	tom := h.Register(t, "TENANT", "tom")
	h.Register(t, "TENANT", "tina")

	taken := "tina@example.com"
	_, err := h.Auth.UpdateProfile(ctx, tom, auth.ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)

	email := "thomas@example.com"
	phone := "0600000000"
	u, err := h.Auth.UpdateProfile(ctx, tom, auth.ProfileUpdate{Email: &email, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)

	res, err := h.Auth.Login(ctx, auth.LoginParams{Login: email, Password: "correct-horse"})
	require.NoError(t, err)
	tenant, ok := res.Actor.Account.Tenant()
	require.True(t, ok)
	assert.Equal(t, email, tenant.Email)
	assert.Equal(t, phone, tenant.Phone)

	_, err = h.Auth.UpdateProfile(ctx, policies.Actor{}, auth.ProfileUpdate{})
	assert.ErrorIs(t, err, policies.ErrUnauthenticated)
}

func TestCommissionIsAdminOnly(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	owner := h.Register(t, "OWNER", "olivia")
	admin := h.Admin(t)
	percent := 12.5

	_, err := h.Auth.UpdateOwner(ctx, owner, auth.OwnerUpdate{CommissionPercent: &percent})
	assert.ErrorIs(t, err, auth.ErrCommissionAdmin)

	company := "Olivia Homes"
	updated, err := h.Auth.UpdateOwner(ctx, owner, auth.OwnerUpdate{CompanyName: &company})
	require.NoError(t, err)
	assert.Equal(t, company, updated.CompanyName)

	updated, err = h.Auth.UpdateOwner(ctx, admin, auth.OwnerUpdate{OwnerID: string(owner.OwnerID()), CommissionPercent: &percent})
	require.NoError(t, err)
	assert.Equal(t, int64(1250), updated.CommissionBP)
}

func TestChangePassword(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	tom := h.Register(t, "TENANT", "tom")

	assert.ErrorIs(t, h.Auth.ChangePassword(ctx, tom, "wrong-horse", "battery-staple"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, h.Auth.ChangePassword(ctx, tom, "correct-horse", "short"), auth.ErrPasswordTooShort)
	require.NoError(t, h.Auth.ChangePassword(ctx, tom, "correct-horse", "battery-staple"))

	_, err := h.Auth.Login(ctx, auth.LoginParams{Login: "tom", Password: "battery-staple"})
	assert.NoError(t, err)
}
