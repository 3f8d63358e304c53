package memory

import (
	"context"
	"sort"

	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/user"
)

type profileRepo struct{ u *Unit }

func (r profileRepo) OwnerByID(ctx context.Context, id profiles.OwnerID) (*profiles.OwnerProfile, error) {
	if row, ok := r.u.data.owners[id]; ok {
		return &row, nil
	}
	return nil, profiles.ErrOwnerNotFound
}

func (r profileRepo) OwnerByUser(ctx context.Context, userID user.ID) (*profiles.OwnerProfile, error) {
	for _, row := range r.u.data.owners {
		if row.UserID == userID {
			found := row
			return &found, nil
		}
	}
	return nil, profiles.ErrOwnerNotFound
}

func (r profileRepo) TenantByID(ctx context.Context, id profiles.TenantID) (*profiles.TenantProfile, error) {
	if row, ok := r.u.data.tenants[id]; ok {
		return cloneTenant(row), nil
	}
	return nil, profiles.ErrTenantNotFound
}

func (r profileRepo) TenantByUser(ctx context.Context, userID user.ID) (*profiles.TenantProfile, error) {
	for _, row := range r.u.data.tenants {
		if row.UserID == userID {
			return cloneTenant(row), nil
		}
	}
	return nil, profiles.ErrTenantNotFound
}

func (r profileRepo) TenantByEmail(ctx context.Context, email string) (*profiles.TenantProfile, error) {
	key := user.NormalizeEmail(email)
	for _, row := range r.u.data.tenants {
		if row.Email == key {
			return cloneTenant(row), nil
		}
	}
	return nil, profiles.ErrTenantNotFound
}

func (r profileRepo) SaveOwner(ctx context.Context, owner *profiles.OwnerProfile) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.data.owners[owner.ID] = *owner
	return nil
}

func (r profileRepo) SaveTenant(ctx context.Context, tenant *profiles.TenantProfile) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for id, row := range r.u.data.tenants {
		if id != tenant.ID && row.Email == tenant.Email {
			return profiles.ErrTenantEmailTaken
		}
	}
	r.u.data.tenants[tenant.ID] = *cloneTenant(*tenant)
	return nil
}

func (r profileRepo) UpdateOwnerTotals(ctx context.Context, owner *profiles.OwnerProfile) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row, ok := r.u.data.owners[owner.ID]
	if !ok {
		return profiles.ErrOwnerNotFound
	}
	row.SetTotals(owner.TotalListings, owner.TotalReservations, owner.UpdatedAt)
	r.u.data.owners[owner.ID] = row
	return nil
}

func (r profileRepo) UpdateTenantTotals(ctx context.Context, tenant *profiles.TenantProfile) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row, ok := r.u.data.tenants[tenant.ID]
	if !ok {
		return profiles.ErrTenantNotFound
	}
	row.SetTotals(tenant.TotalReservations, tenant.TotalSpend, tenant.UpdatedAt)
	r.u.data.tenants[tenant.ID] = row
	return nil
}

func (r profileRepo) ListOwnerIDs(ctx context.Context) ([]profiles.OwnerID, error) {
	out := make([]profiles.OwnerID, 0, len(r.u.data.owners))
	for id := range r.u.data.owners {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r profileRepo) ListTenantIDs(ctx context.Context) ([]profiles.TenantID, error) {
	out := make([]profiles.TenantID, 0, len(r.u.data.tenants))
	for id := range r.u.data.tenants {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func cloneTenant(row profiles.TenantProfile) *profiles.TenantProfile {
	if row.MaxBudget != nil {
		budget := *row.MaxBudget
		row.MaxBudget = &budget
	}
	return &row
}

var _ profiles.Repository = profileRepo{}
