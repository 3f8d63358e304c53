package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/uow"
	domainauth "rentdesk/internal/domain/auth"
	"rentdesk/internal/domain/profiles"
	"rentdesk/internal/domain/shared/apperr"
	domainuser "rentdesk/internal/domain/user"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrForbidden, "auth: invalid credentials")
	ErrPasswordTooShort   = apperr.New(apperr.ErrValidation, "auth: password must be at least 8 characters")
	ErrAdminSelfSignup    = apperr.New(apperr.ErrValidation, "auth: admin accounts cannot self-register")
	ErrCommissionAdmin    = apperr.New(apperr.ErrForbidden, "auth: only admins change commissions")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service registers users, issues bearer sessions and maintains profiles. Writes run in their
// own unit of work.
type Service struct {
	UoW        uow.UoWFactory
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Currency   string
	Logger     *slog.Logger
	Clock      func() time.Time
}

type RegisterParams struct {
	Username    string `validate:"required,max=150"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	FirstName   string `validate:"max=150"`
	LastName    string `validate:"max=150"`
	Phone       string `validate:"max=20"`
	Address     string
	Role        string `validate:"omitempty,oneof=TENANT OWNER tenant owner"`
	Siret       string `validate:"omitempty,len=14,numeric"`
	CompanyName string `validate:"max=200"`
}

type LoginParams struct {
	// Login is a username or an email.
	Login    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Actor policies.Actor
	Token string
}

// Register creates the user and exactly one profile matching its role.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	role, err := domainuser.ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	if role == domainuser.RoleAdmin {
		return nil, ErrAdminSelfSignup
	}
	return s.create(ctx, params, role)
}

// CreateAdmin is used by operators to bootstrap an administrator.
func (s *Service) CreateAdmin(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	return s.create(ctx, params, domainuser.RoleAdmin)
}

func (s *Service) create(ctx context.Context, params RegisterParams, role domainuser.Role) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		Address:      params.Address,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	var actor policies.Actor
	err = support.RunInUnit(ctx, s.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := ensureUnique(ctx, unit.Users(), u); err != nil {
			return err
		}
		if err := unit.Users().Save(ctx, u); err != nil {
			return err
		}
		if err := s.attachProfile(ctx, unit.Profiles(), u, params, now); err != nil {
			return err
		}
		resolved, err := policies.NewActor(ctx, unit.Profiles(), u)
		actor = resolved
		return err
	})
	if err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", u.ID, "role", u.Role, "account", actor.Account.Kind.String())
	}
	return &AuthResult{User: u, Actor: actor, Token: token}, nil
}

func ensureUnique(ctx context.Context, users domainuser.Repository, u *domainuser.User) error {
	if _, err := users.ByEmail(ctx, u.Email); err == nil {
		return domainuser.ErrEmailAlreadyUsed
	} else if !domainuser.IsNotFound(err) {
		return err
	}
	if _, err := users.ByUsername(ctx, u.Username); err == nil {
		return domainuser.ErrUsernameTaken
	} else if !domainuser.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *Service) attachProfile(ctx context.Context, repo profiles.Repository, u *domainuser.User, params RegisterParams, now time.Time) error {
	switch u.Role {
	case domainuser.RoleOwner:
		owner, err := profiles.NewOwnerProfile(profiles.OwnerID(uuid.NewString()), u, now)
		if err != nil {
			return err
		}
		owner.Siret = strings.TrimSpace(params.Siret)
		owner.CompanyName = strings.TrimSpace(params.CompanyName)
		return repo.SaveOwner(ctx, owner)
	case domainuser.RoleTenant:
		tenant, err := profiles.NewTenantProfile(profiles.TenantID(uuid.NewString()), u, s.Currency, now)
		if err != nil {
			return err
		}
		return repo.SaveTenant(ctx, tenant)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(params.Login)
	if login == "" {
		return nil, ErrInvalidCredentials
	}
	var result *AuthResult
	err := s.read(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		u, err := unit.Users().ByUsername(ctx, login)
		if domainuser.IsNotFound(err) {
			u, err = unit.Users().ByEmail(ctx, login)
		}
		if domainuser.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
			return ErrInvalidCredentials
		}
		actor, err := policies.NewActor(ctx, unit.Profiles(), u)
		if err != nil {
			return err
		}
		result = &AuthResult{User: u, Actor: actor}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Token, err = s.issueSession(ctx, result.User); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", result.User.ID)
	}
	return result, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

// ResolveToken returns the acting user of a bearer token with its profile loaded.
func (s *Service) ResolveToken(ctx context.Context, token string) (policies.Actor, error) {
	if err := s.ensureDependencies(); err != nil {
		return policies.Actor{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return policies.Actor{}, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return policies.Actor{}, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return policies.Actor{}, domainauth.ErrSessionNotFound
	}
	var actor policies.Actor
	err = s.read(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		u, err := unit.Users().ByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		actor, err = policies.NewActor(ctx, unit.Profiles(), u)
		return err
	})
	if domainuser.IsNotFound(err) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return policies.Actor{}, domainauth.ErrSessionNotFound
	}
	return actor, err
}

// ProfileUpdate changes the contact fields of the acting user. Tenant profiles follow the
// user record.
type ProfileUpdate struct {
	FirstName *string `validate:"omitempty,max=150"`
	LastName  *string `validate:"omitempty,max=150"`
	Email     *string `validate:"omitempty,email"`
	Phone     *string `validate:"omitempty,max=20"`
	Address   *string
}

func (s *Service) UpdateProfile(ctx context.Context, actor policies.Actor, update ProfileUpdate) (*domainuser.User, error) {
	if !actor.Authenticated() {
		return nil, policies.ErrUnauthenticated
	}
	var out *domainuser.User
	err := support.RunInUnit(ctx, s.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
		u, err := unit.Users().ByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if update.Email != nil && domainuser.NormalizeEmail(*update.Email) != u.Email {
			if _, err := unit.Users().ByEmail(ctx, *update.Email); err == nil {
				return domainuser.ErrEmailAlreadyUsed
			} else if !domainuser.IsNotFound(err) {
				return err
			}
		}
		now := s.now()
		if err := u.UpdateContact(domainuser.ContactUpdate{
			FirstName: update.FirstName,
			LastName:  update.LastName,
			Email:     update.Email,
			Phone:     update.Phone,
			Address:   update.Address,
		}, now); err != nil {
			return err
		}
		if err := unit.Users().Save(ctx, u); err != nil {
			return err
		}
		if u.Role == domainuser.RoleTenant {
			tenant, err := unit.Profiles().TenantByUser(ctx, u.ID)
			if err != nil && !errors.Is(err, profiles.ErrTenantNotFound) {
				return err
			}
			if tenant != nil {
				tenant.SyncContact(u, now)
				if err := unit.Profiles().SaveTenant(ctx, tenant); err != nil {
					return err
				}
			}
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OwnerUpdate edits business fields of an owner profile. Only admins may change the commission.
type OwnerUpdate struct {
	OwnerID           string
	Siret             *string `validate:"omitempty,len=14,numeric"`
	CompanyName       *string `validate:"omitempty,max=200"`
	CommissionPercent *float64
}

func (s *Service) UpdateOwner(ctx context.Context, actor policies.Actor, update OwnerUpdate) (*profiles.OwnerProfile, error) {
	ownerID := actor.OwnerID()
	if policies.IsAdmin(actor) && update.OwnerID != "" {
		ownerID = profiles.OwnerID(update.OwnerID)
	}
	if err := policies.Require(ownerID != ""); err != nil {
		return nil, err
	}
	if update.CommissionPercent != nil && !policies.IsAdmin(actor) {
		return nil, ErrCommissionAdmin
	}
	var out *profiles.OwnerProfile
	err := support.RunInUnit(ctx, s.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
		owner, err := unit.Profiles().OwnerByID(ctx, ownerID)
		if err != nil {
			return err
		}
		now := s.now()
		if update.Siret != nil {
			owner.Siret = strings.TrimSpace(*update.Siret)
		}
		if update.CompanyName != nil {
			owner.CompanyName = strings.TrimSpace(*update.CompanyName)
		}
		if update.CommissionPercent != nil {
			bp, err := profiles.CommissionFromPercent(*update.CommissionPercent)
			if err != nil {
				return err
			}
			if err := owner.SetCommission(bp, now); err != nil {
				return err
			}
		}
		owner.UpdatedAt = now.UTC()
		out = owner
		return unit.Profiles().SaveOwner(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor policies.Actor, current, next string) error {
	if !actor.Authenticated() {
		return policies.ErrUnauthenticated
	}
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	err := support.RunInUnit(ctx, s.UoW, func(ctx context.Context, unit uow.UnitOfWork) error {
		u, err := unit.Users().ByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if err := s.Passwords.Compare(u.PasswordHash, current); err != nil {
			return ErrInvalidCredentials
		}
		hash, err := s.Passwords.Hash(next)
		if err != nil {
			return err
		}
		if err := u.SetPasswordHash(hash, s.now()); err != nil {
			return err
		}
		return unit.Users().Save(ctx, u)
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("password changed", "user_id", actor.UserID)
	}
	return nil
}

func (s *Service) User(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var out *domainuser.User
	err := s.read(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		u, err := unit.Users().ByID(ctx, id)
		out = u
		return err
	})
	return out, err
}

func (s *Service) read(ctx context.Context, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, s.UoW)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(execCtx, unit)
}

func (s *Service) issueSession(ctx context.Context, u *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: u.ID,
		Role:   u.Role,
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.UoW == nil:
		return errors.New("auth: unit of work factory required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
