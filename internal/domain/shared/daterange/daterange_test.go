package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(layout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewRejectsReversedRange(t *testing.T) {
	_, err := New(date("2024-06-10"), date("2024-06-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	dr, err := New(date("2024-06-10"), date("2024-06-10"))
	require.NoError(t, err)
	assert.Equal(t, 0, dr.Days())
}

func TestNewNormalizesToDay(t *testing.T) {
	start := time.Date(2024, 6, 1, 17, 30, 0, 0, time.FixedZone("X", 3600))
	dr, err := New(start, start.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, date("2024-06-01"), dr.Start)
	assert.Equal(t, 2, dr.Days())
}

func TestOverlapsIsClosed(t *testing.T) {
	first, err := Parse("2024-06-01", "2024-06-10")
	require.NoError(t, err)

	cases := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"shared boundary day", "2024-06-10", "2024-06-15", true},
		{"day after", "2024-06-11", "2024-06-15", false},
		{"ends on first day", "2024-05-25", "2024-06-01", true},
		{"before", "2024-05-20", "2024-05-31", false},
		{"inside", "2024-06-03", "2024-06-04", true},
		{"covering", "2024-05-01", "2024-07-01", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := Parse(tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, first.Overlaps(other))
			assert.Equal(t, tc.want, other.Overlaps(first))
		})
	}
}

func TestDayPredicates(t *testing.T) {
	dr, err := Parse("2024-06-01", "2024-06-10")
	require.NoError(t, err)

	assert.True(t, dr.ContainsDay(date("2024-06-10").Add(20*time.Hour)))
	assert.False(t, dr.ContainsDay(date("2024-06-11")))
	assert.True(t, dr.EndsBefore(date("2024-06-11")))
	assert.False(t, dr.EndsBefore(date("2024-06-10")))
	assert.True(t, dr.StartsAfter(date("2024-05-31")))
	assert.True(t, dr.StartsBefore(date("2024-06-02")))
	assert.False(t, dr.StartsBefore(date("2024-06-01")))
	assert.Equal(t, "2024-06-01..2024-06-10", dr.String())
}

func TestParseRequiresBothDates(t *testing.T) {
	_, err := Parse("", "2024-06-10")
	assert.ErrorIs(t, err, ErrMissingDate)
}
