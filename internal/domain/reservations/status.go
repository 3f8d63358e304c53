package reservations

import (
	"fmt"
	"strings"

	"rentdesk/internal/domain/shared/apperr"
)

type Status string

const (
	StatusReserved  Status = "RESERVED"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var (
	// HoldingStatuses occupy the calendar of a listing.
	HoldingStatuses = []Status{StatusReserved, StatusConfirmed, StatusPaid}
	// BlockingStatuses make a listing unavailable and reject overlapping confirmations.
	BlockingStatuses = []Status{StatusConfirmed, StatusPaid}
)

var transitions = map[Status][]Status{
	StatusReserved:  {StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusConfirmed, StatusPaid, StatusCancelled, StatusCompleted},
	StatusPaid:      {StatusCancelled, StatusCompleted},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusReserved, StatusConfirmed, StatusPaid, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", apperr.Validationf("reservations: unknown status %q", raw)
}

// Terminal statuses accept no further transition.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Blocking() bool {
	return s == StatusConfirmed || s == StatusPaid
}

// CanTransitionTo reports whether next is reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) checkTransition(next Status) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
}

func containsStatus(set []Status, s Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
