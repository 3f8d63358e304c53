package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/shared/money"
	"rentdesk/internal/domain/user"
)

func newUser(t *testing.T, role user.Role) *user.User {
	t.Helper()
	u, err := user.NewUser(user.CreateParams{
		ID: "u-1", Username: "fatou", Email: "fatou@example.com", FirstName: "Fatou", LastName: "Diop",
		Phone: "770000000", PasswordHash: "h", Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestCommissionFromPercent(t *testing.T) {
	bp, err := CommissionFromPercent(12.5)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), bp)

	_, err = CommissionFromPercent(100.01)
	assert.ErrorIs(t, err, ErrCommissionRange)
	_, err = CommissionFromPercent(-1)
	assert.ErrorIs(t, err, ErrCommissionRange)
}

func TestNewTenantProfileMirrorsUser(t *testing.T) {
	u := newUser(t, user.RoleTenant)
	tenant, err := NewTenantProfile("t-1", u, "XOF", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Fatou Diop", tenant.Name)
	assert.Equal(t, "fatou@example.com", tenant.Email)
	assert.Equal(t, money.Zero("XOF"), tenant.TotalSpend)

	email := "new@example.com"
	require.NoError(t, u.UpdateContact(user.ContactUpdate{Email: &email}, time.Now()))
	tenant.SyncContact(u, time.Now())
	assert.Equal(t, email, tenant.Email)
}

func TestSetTotalsReportsChange(t *testing.T) {
	owner, err := NewOwnerProfile("o-1", newUser(t, user.RoleOwner), time.Now())
	require.NoError(t, err)
	assert.Equal(t, DefaultCommissionBP, owner.CommissionBP)
	assert.True(t, owner.SetTotals(2, 5, time.Now()))
	assert.False(t, owner.SetTotals(2, 5, time.Now()))
}

type stubRepo struct {
	Repository
	owner  *OwnerProfile
	tenant *TenantProfile
}

func (s stubRepo) OwnerByUser(context.Context, user.ID) (*OwnerProfile, error) {
	if s.owner == nil {
		return nil, ErrOwnerNotFound
	}
	return s.owner, nil
}

func (s stubRepo) TenantByUser(context.Context, user.ID) (*TenantProfile, error) {
	if s.tenant == nil {
		return nil, ErrTenantNotFound
	}
	return s.tenant, nil
}

func TestResolveAccount(t *testing.T) {
	ctx := context.Background()
	owner := &OwnerProfile{ID: "o-1"}
	acc, err := Resolve(ctx, stubRepo{owner: owner}, newUser(t, user.RoleOwner))
	require.NoError(t, err)
	got, ok := acc.Owner()
	require.True(t, ok)
	assert.Same(t, owner, got)
	_, ok = acc.Tenant()
	assert.False(t, ok)

	acc, err = Resolve(ctx, stubRepo{}, newUser(t, user.RoleTenant))
	require.NoError(t, err)
	assert.Equal(t, AccountNone, acc.Kind)

	acc, err = Resolve(ctx, stubRepo{owner: owner}, newUser(t, user.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, AccountNone, acc.Kind)
}
