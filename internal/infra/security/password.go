package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"rentdesk/internal/app/services/auth"
)

// BcryptHasher hashes account passwords. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare reports auth.ErrInvalidCredentials for a wrong password so callers never leak
// which half of a login failed.
func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return auth.ErrInvalidCredentials
	}
	return err
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

var _ auth.PasswordHasher = BcryptHasher{}
