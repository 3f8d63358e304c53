package daterange

import (
	"time"

	"rentdesk/internal/domain/shared/apperr"
)

var (
	ErrInvalidRange = apperr.New(apperr.ErrValidation, "daterange: end date must not be before start date")
	ErrMissingDate  = apperr.New(apperr.ErrValidation, "daterange: start and end dates are required")
)

const layout = "2006-01-02"

// DateRange represents a closed interval of calendar days [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	if start == "" || end == "" {
		return DateRange{}, ErrMissingDate
	}
	s, err := time.Parse(layout, start)
	if err != nil {
		return DateRange{}, apperr.Wrap(apperr.ErrValidation, err)
	}
	e, err := time.Parse(layout, end)
	if err != nil {
		return DateRange{}, apperr.Wrap(apperr.ErrValidation, err)
	}
	return New(s, e)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrMissingDate
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the number of days between start and end (zero for a same-day range).
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

// Overlaps uses closed-interval semantics: ranges touching on a boundary day overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

func (dr DateRange) ContainsDay(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && !d.After(dr.End)
}

// EndsBefore reports whether the whole range is over before day t.
func (dr DateRange) EndsBefore(t time.Time) bool {
	return dr.End.Before(Day(t))
}

func (dr DateRange) StartsAfter(t time.Time) bool {
	return dr.Start.After(Day(t))
}

// StartsBefore reports whether the range begins on a day earlier than t.
func (dr DateRange) StartsBefore(t time.Time) bool {
	return dr.Start.Before(Day(t))
}

func (dr DateRange) String() string {
	return dr.Start.Format(layout) + ".." + dr.End.Format(layout)
}
