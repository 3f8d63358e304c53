package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClassification(t *testing.T) {
	errStart := New(ErrValidation, "reservations: start date is in the past")
	wrapped := fmt.Errorf("create reservation: %w", errStart)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, errors.Is(wrapped, errStart))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, ErrValidation, Kind(wrapped))
	assert.Equal(t, "reservations: start date is in the past", errStart.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(ErrNotFound, cause)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Wrap(ErrNotFound, nil))
	assert.Nil(t, Kind(cause))
}
