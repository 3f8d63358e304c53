package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/user"
)

func TestNewSessionExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSession(CreateSessionParams{Token: " tok ", UserID: "u-1", Role: user.RoleTenant, TTL: time.Hour, Now: now})
	require.NoError(t, err)
	assert.Equal(t, Token("tok"), s.Token)
	assert.False(t, s.Expired(now.Add(59*time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(CreateSessionParams{UserID: "u-1", TTL: time.Hour})
	assert.ErrorIs(t, err, ErrTokenRequired)
	_, err = NewSession(CreateSessionParams{Token: "t", TTL: time.Hour})
	assert.ErrorIs(t, err, ErrUserRequired)
	_, err = NewSession(CreateSessionParams{Token: "t", UserID: "u-1"})
	assert.ErrorIs(t, err, ErrTTLInvalid)
}
