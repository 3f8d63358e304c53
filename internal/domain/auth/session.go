package auth

import (
	"context"
	"strings"
	"time"

	"rentdesk/internal/domain/shared/apperr"
	"rentdesk/internal/domain/user"
)

var (
	ErrTokenRequired   = apperr.New(apperr.ErrValidation, "auth: token is required")
	ErrUserRequired    = apperr.New(apperr.ErrValidation, "auth: user is required")
	ErrTTLInvalid      = apperr.New(apperr.ErrValidation, "auth: ttl must be positive")
	ErrSessionNotFound = apperr.New(apperr.ErrNotFound, "auth: session not found")
)

type Token string

// Session binds an opaque bearer token to a user until ExpiresAt.
type Session struct {
	Token     Token
	UserID    user.ID
	Role      user.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token  Token
	UserID user.ID
	Role   user.Role
	TTL    time.Duration
	Now    time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Session{
		Token:     Token(token),
		UserID:    params.UserID,
		Role:      params.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteByUser(ctx context.Context, userID user.ID) error
}
