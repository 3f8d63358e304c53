// Package apperr defines the error kinds shared by every layer. Domain sentinels wrap
// one of these kinds so callers can classify failures with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// New builds a sentinel error of the given kind.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Wrap annotates err with a kind while keeping it reachable through errors.Is/As.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, msg: err.Error(), cause: err}
}

// Validationf is a shortcut for ad-hoc validation failures.
func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Kind reports which kind err belongs to, or nil when it is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrInvalidState, ErrForbidden, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.cause }
