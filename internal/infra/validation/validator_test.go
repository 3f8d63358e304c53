package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/shared/apperr"
)

type signup struct {
	Email    string `validate:"required,email"`
	Nickname string `json:"nick" validate:"max=5"`
	Siret    string `validate:"omitempty,len=14,numeric"`
}

func TestValidateReportsFieldsAsValidationError(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), signup{Email: "nope", Nickname: "toolongname", Siret: "123"})
	require.Error(t, err)
	assert.Equal(t, apperr.ErrValidation, apperr.Kind(err))
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "nick must be at most 5")
	assert.Contains(t, err.Error(), "siret must have length 14")
}

func TestValidateAcceptsValidAndNonStructMessages(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), signup{Email: "a@b.io"}))
	assert.NoError(t, v.Validate(context.Background(), &signup{Email: "a@b.io", Siret: "12345678901234"}))
	assert.NoError(t, v.Validate(context.Background(), "plain"))
	assert.NoError(t, v.Validate(context.Background(), nil))
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "listing_id", toSnake("ListingID"))
	assert.Equal(t, "tenant_email", toSnake("TenantEmail"))
}
