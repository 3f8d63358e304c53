package dto

import (
	"time"

	"rentdesk/internal/domain/profiles"
	domainuser "rentdesk/internal/domain/user"
)

type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Role      string    `json:"role"`
	OwnerID   string    `json:"owner_id,omitempty"`
	TenantID  string    `json:"tenant_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MapUser renders u with the profile identifiers of its account.
func MapUser(u *domainuser.User, account profiles.Account) UserView {
	view := UserView{
		ID:        string(u.ID),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if owner, ok := account.Owner(); ok {
		view.OwnerID = string(owner.ID)
	}
	if tenant, ok := account.Tenant(); ok {
		view.TenantID = string(tenant.ID)
	}
	return view
}

type SessionView struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type OwnerProfileView struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	Siret             string  `json:"siret,omitempty"`
	CompanyName       string  `json:"company_name,omitempty"`
	CommissionPercent float64 `json:"commission_percent"`
	TotalListings     int     `json:"total_listings"`
	TotalReservations int     `json:"total_reservations"`
}

func MapOwnerProfile(p *profiles.OwnerProfile) OwnerProfileView {
	return OwnerProfileView{
		ID:                string(p.ID),
		UserID:            string(p.UserID),
		Siret:             p.Siret,
		CompanyName:       p.CompanyName,
		CommissionPercent: p.CommissionPercent(),
		TotalListings:     p.TotalListings,
		TotalReservations: p.TotalReservations,
	}
}
