package policies

import (
	"context"

	"rentdesk/internal/domain/listings"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/user"
)

var (
	ErrUnauthenticated = apperr.New(apperr.ErrForbidden, "policies: authentication required")
	ErrNotAllowed      = apperr.New(apperr.ErrForbidden, "policies: action not allowed for this user")
)

// Actor is the authenticated user behind a request, with its profile resolved once.
type Actor struct {
	UserID  user.ID
	Email   string
	Role    user.Role
	Account profiles.Account
}

// NewActor resolves the account of u.
func NewActor(ctx context.Context, repo profiles.Repository, u *user.User) (Actor, error) {
	account, err := profiles.Resolve(ctx, repo, u)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role, Account: account}, nil
}

func (a Actor) Authenticated() bool { return a.UserID != "" }

func (a Actor) OwnerID() profiles.OwnerID {
	if owner, ok := a.Account.Owner(); ok {
		return owner.ID
	}
	return ""
}

func (a Actor) TenantID() profiles.TenantID {
	if tenant, ok := a.Account.Tenant(); ok {
		return tenant.ID
	}
	return ""
}

func IsAdmin(a Actor) bool {
	return a.Authenticated() && a.Role == user.RoleAdmin
}

// IsOwnerOf reports whether a owns listing l.
func IsOwnerOf(a Actor, l *listings.Listing) bool {
	if l == nil || !l.HasOwner() {
		return false
	}
	return a.OwnerID() != "" && a.OwnerID() == l.Owner
}

// CanManageListing gates listing edits, photo uploads and reservation confirmation.
func CanManageListing(a Actor, l *listings.Listing) bool {
	return IsAdmin(a) || IsOwnerOf(a, l)
}

// CanCancel adds the reservation's tenant to the listing managers. Without a linked profile
// the tenant is recognized by the snapshot email.
func CanCancel(a Actor, l *listings.Listing, r *reservations.Reservation) bool {
	if CanManageListing(a, l) {
		return true
	}
	if !a.Authenticated() || r == nil {
		return false
	}
	if r.TenantID != "" {
		return a.TenantID() == r.TenantID
	}
	return a.Email != "" && user.NormalizeEmail(a.Email) == r.Tenant.Email
}

// CanView lets the parties of a reservation read it.
func CanView(a Actor, l *listings.Listing, r *reservations.Reservation) bool {
	return CanCancel(a, l, r)
}

func Require(allowed bool) error {
	if !allowed {
		return ErrNotAllowed
	}
	return nil
}
