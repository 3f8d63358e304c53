package profiles

import (
	"context"
	"errors"

	"rentdesk/internal/domain/user"
)

type AccountKind uint8

const (
	AccountNone AccountKind = iota
	AccountOwner
	AccountTenant
)

func (k AccountKind) String() string {
	switch k {
	case AccountOwner:
		return "owner"
	case AccountTenant:
		return "tenant"
	default:
		return "none"
	}
}

// Account is the profile attached to a user: exactly one of Owner or Tenant, or none for admins.
type Account struct {
	Kind   AccountKind
	owner  *OwnerProfile
	tenant *TenantProfile
}

func OwnerAccount(p *OwnerProfile) Account   { return Account{Kind: AccountOwner, owner: p} }
func TenantAccount(p *TenantProfile) Account { return Account{Kind: AccountTenant, tenant: p} }
func NoAccount() Account                     { return Account{Kind: AccountNone} }

func (a Account) Owner() (*OwnerProfile, bool) {
	return a.owner, a.Kind == AccountOwner && a.owner != nil
}

func (a Account) Tenant() (*TenantProfile, bool) {
	return a.tenant, a.Kind == AccountTenant && a.tenant != nil
}

// Resolve loads the profile matching the user's role. A missing profile resolves to NoAccount.
func Resolve(ctx context.Context, repo Repository, u *user.User) (Account, error) {
	if u == nil {
		return NoAccount(), ErrUserRequired
	}
	switch u.Role {
	case user.RoleOwner:
		owner, err := repo.OwnerByUser(ctx, u.ID)
		if errors.Is(err, ErrOwnerNotFound) {
			return NoAccount(), nil
		}
		if err != nil {
			return NoAccount(), err
		}
		return OwnerAccount(owner), nil
	case user.RoleTenant:
		tenant, err := repo.TenantByUser(ctx, u.ID)
		if errors.Is(err, ErrTenantNotFound) {
			return NoAccount(), nil
		}
		if err != nil {
			return NoAccount(), err
		}
		return TenantAccount(tenant), nil
	default:
		return NoAccount(), nil
	}
}
