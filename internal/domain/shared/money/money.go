package money

import (
	"fmt"
	"strings"

	"rentdesk/internal/domain/shared/apperr"
)

var (
	ErrInvalidCurrency  = apperr.New(apperr.ErrValidation, "money: invalid currency code")
	ErrCurrencyMismatch = apperr.New(apperr.ErrValidation, "money: currency mismatch")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point drift.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns an empty amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// ProRate returns amount × units / basis rounded half away from zero.
// A monthly rent pro-rated over 10 days is m.ProRate(10, 30).
func (m Money) ProRate(units, basis int64) Money {
	if basis == 0 {
		return Money{Currency: m.Currency}
	}
	return Money{Amount: divRound(m.Amount*units, basis), Currency: m.Currency}
}

// BasisPoints returns the share of m expressed in hundredths of a percent (1000 = 10%).
func (m Money) BasisPoints(bp int64) Money {
	return m.ProRate(bp, 10000)
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Decimal renders the amount with two decimals, e.g. 1234 -> "12.34".
func (m Money) Decimal() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func divRound(n, d int64) int64 {
	if d < 0 {
		n, d = -n, -d
	}
	if n >= 0 {
		return (n*2 + d) / (2 * d)
	}
	return -((-n*2 + d) / (2 * d))
}
