// Package calendar provides date-only arithmetic for forecasting.
//
// A Date carries no time of day and no zone: every value is normalized to
// UTC midnight, so comparisons and month bucketing never depend on the local
// clock. All operations return new values.
package calendar

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ISOLayout is the yyyy-mm-dd layout used for parsing and formatting.
const ISOLayout = "2006-01-02"

// ErrInvalidDate is returned when a string is not a valid yyyy-mm-dd date.
var ErrInvalidDate = errors.New("invalid date")

// Date is an immutable calendar day.
type Date struct {
	t time.Time
}

// New returns the date for the given year, month and day. Out-of-range
// values normalize the way time.Date does (Feb 30 becomes Mar 1 or 2).
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the time-of-day and zone from t, keeping its calendar day.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() Date {
	return FromTime(time.Now())
}

// Parse parses a yyyy-mm-dd string.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// fixed literals.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// String formats d as yyyy-mm-dd.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(ISOLayout)
}

// Format formats d with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return New(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return New(d.Year(), d.Month(), DaysIn(d.Year(), d.Month()))
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths returns d shifted by n months. The day of month is kept unless
// the target month is shorter, in which case it is clamped to that month's
// last day (Jan 31 + 1 month is Feb 28 or 29).
func (d Date) AddMonths(n int) Date {
	total := int(d.Month()) - 1 + n
	year := d.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	day := min(d.Day(), DaysIn(year, month))
	return New(year, month, day)
}

// WithDay returns d moved to the given day of its month, clamped to
// [1, last day of month].
func (d Date) WithDay(day int) Date {
	day = max(1, min(day, DaysIn(d.Year(), d.Month())))
	return New(d.Year(), d.Month(), day)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// SameMonth reports whether d and o fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// Min returns the earlier of a and b.
func Min(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Timestamps such as
// 2025-01-31T00:00:00.000Z are accepted and truncated to their date part.
func (d *Date) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) > len(ISOLayout) && s[len(ISOLayout)] == 'T' {
		s = s[:len(ISOLayout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer; dates are stored as ISO text.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		if v == "" {
			*d = Date{}
			return nil
		}
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
