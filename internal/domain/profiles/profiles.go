package profiles

import (
	"context"
	"math"
	"strings"
	"time"

	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/shared/money"
	"rentdesk/internal/domain/user"
)

// DefaultCommissionBP is 10%.
const DefaultCommissionBP int64 = 1000

var (
	ErrOwnerNotFound    = apperr.New(apperr.ErrNotFound, "profiles: owner profile not found")
	ErrTenantNotFound   = apperr.New(apperr.ErrNotFound, "profiles: tenant profile not found")
	ErrCommissionRange  = apperr.New(apperr.ErrValidation, "profiles: commission must be between 0 and 100 percent")
	ErrTenantEmailTaken = apperr.New(apperr.ErrConflict, "profiles: tenant email already used")
	ErrNegativeBudget   = apperr.New(apperr.ErrValidation, "profiles: max budget cannot be negative")
	ErrUserRequired     = apperr.New(apperr.ErrValidation, "profiles: user is required")
)

type OwnerID string
type TenantID string

type OwnerProfile struct {
	ID           OwnerID
	UserID       user.ID
	Siret        string
	CompanyName  string
	CommissionBP int64

	TotalListings     int
	TotalReservations int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TenantProfile struct {
	ID         TenantID
	UserID     user.ID
	Name       string
	Email      string
	Phone      string
	MaxBudget  *money.Money
	SearchCity string

	TotalReservations int
	TotalSpend        money.Money

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommissionFromPercent converts a percentage with two decimals (12.5) into basis points (1250).
func CommissionFromPercent(percent float64) (int64, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, ErrCommissionRange
	}
	return int64(math.Round(percent * 100)), nil
}

// CommissionPercent renders basis points back as a percentage.
func (o *OwnerProfile) CommissionPercent() float64 {
	return float64(o.CommissionBP) / 100
}

func (o *OwnerProfile) SetCommission(bp int64, now time.Time) error {
	if bp < 0 || bp > 10000 {
		return ErrCommissionRange
	}
	o.CommissionBP = bp
	o.UpdatedAt = now.UTC()
	return nil
}

// SetTotals overwrites the derived counters.
func (o *OwnerProfile) SetTotals(listings, reservations int, now time.Time) bool {
	if o.TotalListings == listings && o.TotalReservations == reservations {
		return false
	}
	o.TotalListings = listings
	o.TotalReservations = reservations
	o.UpdatedAt = now.UTC()
	return true
}

// SyncContact copies the contact fields held on the user record.
func (t *TenantProfile) SyncContact(u *user.User, now time.Time) {
	if u == nil {
		return
	}
	t.Name = u.FullName()
	t.Email = u.Email
	t.Phone = u.Phone
	t.UpdatedAt = now.UTC()
}

func (t *TenantProfile) SetPreferences(maxBudget *money.Money, city string, now time.Time) error {
	if maxBudget != nil && maxBudget.Amount < 0 {
		return ErrNegativeBudget
	}
	t.MaxBudget = maxBudget
	t.SearchCity = strings.TrimSpace(city)
	t.UpdatedAt = now.UTC()
	return nil
}

// SetTotals overwrites the derived counters.
func (t *TenantProfile) SetTotals(reservations int, spend money.Money, now time.Time) bool {
	if t.TotalReservations == reservations && t.TotalSpend == spend {
		return false
	}
	t.TotalReservations = reservations
	t.TotalSpend = spend
	t.UpdatedAt = now.UTC()
	return true
}

// NewOwnerProfile attaches an owner profile with the default commission.
func NewOwnerProfile(id OwnerID, u *user.User, now time.Time) (*OwnerProfile, error) {
	if u == nil {
		return nil, ErrUserRequired
	}
	now = now.UTC()
	return &OwnerProfile{
		ID:           id,
		UserID:       u.ID,
		CommissionBP: DefaultCommissionBP,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewTenantProfile attaches a tenant profile whose contact fields mirror the user.
func NewTenantProfile(id TenantID, u *user.User, currency string, now time.Time) (*TenantProfile, error) {
	if u == nil {
		return nil, ErrUserRequired
	}
	now = now.UTC()
	t := &TenantProfile{
		ID:         id,
		UserID:     u.ID,
		TotalSpend: money.Zero(currency),
		CreatedAt:  now,
	}
	t.SyncContact(u, now)
	return t, nil
}

type Repository interface {
	OwnerByID(ctx context.Context, id OwnerID) (*OwnerProfile, error)
	OwnerByUser(ctx context.Context, userID user.ID) (*OwnerProfile, error)
	TenantByID(ctx context.Context, id TenantID) (*TenantProfile, error)
	TenantByUser(ctx context.Context, userID user.ID) (*TenantProfile, error)
	TenantByEmail(ctx context.Context, email string) (*TenantProfile, error)
	SaveOwner(ctx context.Context, owner *OwnerProfile) error
	SaveTenant(ctx context.Context, tenant *TenantProfile) error
	// UpdateOwnerTotals and UpdateTenantTotals write only the derived counters.
	UpdateOwnerTotals(ctx context.Context, owner *OwnerProfile) error
	UpdateTenantTotals(ctx context.Context, tenant *TenantProfile) error
	ListOwnerIDs(ctx context.Context) ([]OwnerID, error)
	ListTenantIDs(ctx context.Context) ([]TenantID, error)
}
