package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/shared/apperr"
)

func TestNewUserNormalizes(t *testing.T) {
	u, err := NewUser(CreateParams{
		ID:           "u-1",
		Username:     " amina ",
		Email:        " Amina@Example.COM ",
		PasswordHash: "hash",
		Role:         "owner",
	})
	require.NoError(t, err)
	assert.Equal(t, "amina", u.Username)
	assert.Equal(t, "amina@example.com", u.Email)
	assert.Equal(t, RoleOwner, u.Role)
	assert.Equal(t, "amina", u.FullName())
	assert.False(t, u.CreatedAt.IsZero())
}

func TestNewUserRejectsInvalidInput(t *testing.T) {
	base := CreateParams{ID: "u-1", Username: "x", Email: "x@example.com", PasswordHash: "h"}

	missingEmail := base
	missingEmail.Email = " "
	_, err := NewUser(missingEmail)
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	badRole := base
	badRole.Role = "superuser"
	_, err = NewUser(badRole)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestUpdateContactKeepsRole(t *testing.T) {
	u, err := NewUser(CreateParams{ID: "u-1", Username: "t", Email: "t@example.com", PasswordHash: "h", Role: RoleTenant})
	require.NoError(t, err)
	first, phone := "Awa", "+221 77 000 00 00"
	require.NoError(t, u.UpdateContact(ContactUpdate{FirstName: &first, Phone: &phone}, time.Now()))
	assert.Equal(t, "Awa", u.FullName())
	assert.Equal(t, phone, u.Phone)
	assert.Equal(t, RoleTenant, u.Role)

	empty := ""
	assert.ErrorIs(t, u.UpdateContact(ContactUpdate{Email: &empty}, time.Now()), ErrEmailRequired)
}
