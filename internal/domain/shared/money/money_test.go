package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProRateMonthlyRent(t *testing.T) {
	rent := Must(30000, "xof")
	assert.Equal(t, Must(10000, "XOF"), rent.ProRate(10, 30))

	odd := Must(100000, "XOF")
	// 100000 * 7 / 30 = 23333.33 -> 23333
	assert.Equal(t, int64(23333), odd.ProRate(7, 30).Amount)
	// 50 / 30 = 1.67 -> 2
	assert.Equal(t, int64(2), Must(50, "XOF").ProRate(1, 30).Amount)
	assert.Equal(t, int64(-2), Must(-50, "XOF").ProRate(1, 30).Amount)
	assert.True(t, rent.ProRate(1, 0).IsZero())
}

func TestBasisPoints(t *testing.T) {
	total := Must(10000, "XOF")
	assert.Equal(t, int64(1000), total.BasisPoints(1000).Amount)
	assert.Equal(t, int64(1250), total.BasisPoints(1250).Amount)
	assert.Equal(t, int64(0), total.BasisPoints(0).Amount)
	assert.Equal(t, int64(10000), total.BasisPoints(10000).Amount)
}

func TestArithmeticChecksCurrency(t *testing.T) {
	a := Must(100, "XOF")
	b := Must(250, "XOF")
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Amount)

	_, err = a.Add(Must(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = a.Sub(Money{Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestDecimal(t *testing.T) {
	assert.Equal(t, "12.34", Must(1234, "XOF").Decimal())
	assert.Equal(t, "-0.05", Must(-5, "XOF").Decimal())
	assert.Equal(t, "100.00 XOF", Must(10000, "XOF").String())
}
