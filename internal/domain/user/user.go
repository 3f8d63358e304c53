package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentdesk/internal/domain/shared/apperr"
)

var (
	ErrIDRequired          = apperr.New(apperr.ErrValidation, "user: id is required")
	ErrEmailRequired       = apperr.New(apperr.ErrValidation, "user: email is required")
	ErrPasswordHashMissing = apperr.New(apperr.ErrValidation, "user: password hash is required")
	ErrUsernameRequired    = apperr.New(apperr.ErrValidation, "user: username is required")
	ErrInvalidRole         = apperr.New(apperr.ErrValidation, "user: invalid role")
	ErrEmailAlreadyUsed    = apperr.New(apperr.ErrConflict, "user: email already used")
	ErrUsernameTaken       = apperr.New(apperr.ErrConflict, "user: username already used")
	ErrNotFound            = apperr.New(apperr.ErrNotFound, "user: not found")
)

type ID string

// Role is fixed at registration.
type Role string

const (
	RoleTenant Role = "TENANT"
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole accepts the role name in any case.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleTenant:
		return RoleTenant, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case "":
		return RoleTenant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

type User struct {
	ID           ID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
	CountByRole(ctx context.Context) (map[Role]int, error)
}

type CreateParams struct {
	ID           ID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	role, err := ParseRole(string(params.Role))
	if err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:           ID(id),
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Phone:        strings.TrimSpace(params.Phone),
		Address:      strings.TrimSpace(params.Address),
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName falls back to the username when no name parts are set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type ContactUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
}

// UpdateContact applies the non-nil fields. The role cannot be changed.
func (u *User) UpdateContact(update ContactUpdate, now time.Time) error {
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return ErrEmailRequired
		}
		u.Email = email
	}
	if update.FirstName != nil {
		u.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		u.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		u.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Address != nil {
		u.Address = strings.TrimSpace(*update.Address)
	}
	u.touch(now)
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsNotFound reports whether err means the user does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
