package gormdb

import (
	"context"

	"rentdesk/internal/domain/profiles"
	domainuser "rentdesk/internal/domain/user"
)

type profileRepo struct{ u *Unit }

func (r profileRepo) OwnerByID(ctx context.Context, id profiles.OwnerID) (*profiles.OwnerProfile, error) {
	return r.owner(ctx, "id = ?", string(id))
}

func (r profileRepo) OwnerByUser(ctx context.Context, userID domainuser.ID) (*profiles.OwnerProfile, error) {
	return r.owner(ctx, "user_id = ?", string(userID))
}

func (r profileRepo) TenantByID(ctx context.Context, id profiles.TenantID) (*profiles.TenantProfile, error) {
	return r.tenant(ctx, "id = ?", string(id))
}

func (r profileRepo) TenantByUser(ctx context.Context, userID domainuser.ID) (*profiles.TenantProfile, error) {
	return r.tenant(ctx, "user_id = ?", string(userID))
}

func (r profileRepo) TenantByEmail(ctx context.Context, email string) (*profiles.TenantProfile, error) {
	return r.tenant(ctx, "email = ?", domainuser.NormalizeEmail(email))
}

func (r profileRepo) SaveOwner(ctx context.Context, owner *profiles.OwnerProfile) error {
	m := newOwnerModel(owner)
	return r.u.db(ctx).Save(&m).Error
}

func (r profileRepo) SaveTenant(ctx context.Context, tenant *profiles.TenantProfile) error {
	m := newTenantModel(tenant)
	return translate(r.u.db(ctx).Save(&m).Error, nil, profiles.ErrTenantEmailTaken)
}

func (r profileRepo) UpdateOwnerTotals(ctx context.Context, owner *profiles.OwnerProfile) error {
	res := r.u.db(ctx).Model(&ownerModel{}).Where("id = ?", string(owner.ID)).Updates(map[string]any{
		"total_listings":     owner.TotalListings,
		"total_reservations": owner.TotalReservations,
		"updated_at":         owner.UpdatedAt,
	})
	return affected(res, profiles.ErrOwnerNotFound)
}

func (r profileRepo) UpdateTenantTotals(ctx context.Context, tenant *profiles.TenantProfile) error {
	res := r.u.db(ctx).Model(&tenantModel{}).Where("id = ?", string(tenant.ID)).Updates(map[string]any{
		"total_reservations": tenant.TotalReservations,
		"total_spend":        tenant.TotalSpend.Amount,
		"updated_at":         tenant.UpdatedAt,
	})
	return affected(res, profiles.ErrTenantNotFound)
}

func (r profileRepo) ListOwnerIDs(ctx context.Context) ([]profiles.OwnerID, error) {
	var ids []string
	if err := r.u.db(ctx).Model(&ownerModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	out := make([]profiles.OwnerID, len(ids))
	for i, id := range ids {
		out[i] = profiles.OwnerID(id)
	}
	return out, nil
}

func (r profileRepo) ListTenantIDs(ctx context.Context) ([]profiles.TenantID, error) {
	var ids []string
	if err := r.u.db(ctx).Model(&tenantModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	out := make([]profiles.TenantID, len(ids))
	for i, id := range ids {
		out[i] = profiles.TenantID(id)
	}
	return out, nil
}

func (r profileRepo) owner(ctx context.Context, query string, arg string) (*profiles.OwnerProfile, error) {
	var m ownerModel
	if err := r.u.db(ctx).First(&m, query, arg).Error; err != nil {
		return nil, translate(err, profiles.ErrOwnerNotFound, nil)
	}
	return m.toDomain(), nil
}

func (r profileRepo) tenant(ctx context.Context, query string, arg string) (*profiles.TenantProfile, error) {
	var m tenantModel
	if err := r.u.db(ctx).First(&m, query, arg).Error; err != nil {
		return nil, translate(err, profiles.ErrTenantNotFound, nil)
	}
	return m.toDomain(), nil
}

var _ profiles.Repository = profileRepo{}
