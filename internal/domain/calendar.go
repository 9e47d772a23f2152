package domain

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// CalendarDate is a civil year/month/day with no time of day or zone.
// The zero value is not a valid date.
type CalendarDate struct {
	year  int
	month time.Month
	day   int
}

// NewCalendarDate normalises out-of-range values the way time.Date does,
// so NewCalendarDate(2026, 2, 29) is 2026-03-01.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{year: y, month: m, day: d}
}

func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d CalendarDate) Year() int { return d.year }
func (d CalendarDate) Month() time.Month { return d.month }
func (d CalendarDate) Day() int { return d.day }
func (d CalendarDate) IsZero() bool { return d == CalendarDate{} }
func (d CalendarDate) YearMonth() YearMonth { return YearMonth{Year: d.year, Month: d.month} }

func (d CalendarDate) Weekday() time.Weekday {
	return d.Midnight(time.UTC).Weekday()
}

// String formats the date from its own fields, zero padded.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// Midnight returns the instant the date starts in loc.
func (d CalendarDate) Midnight(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func (d CalendarDate) AddDays(n int) CalendarDate {
	return NewCalendarDate(d.year, d.month, d.day+n)
}

func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }
func (d CalendarDate) After(o CalendarDate) bool { return d.Compare(o) > 0 }

func (d CalendarDate) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return nil, errors.New("cannot marshal zero calendar date")
	}
	return []byte(d.String()), nil
}

func (d *CalendarDate) UnmarshalText(b []byte) error {
	parsed, err := ParseCalendarDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearMonth identifies a displayed calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (m YearMonth) FirstDay() CalendarDate {
	return NewCalendarDate(m.Year, m.Month, 1)
}

// Days is the number of days in the month.
func (m YearMonth) Days() int {
	// day 0 of the next month is the last day of this one
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves by whole months; delta may be any integer.
func (m YearMonth) AddMonths(delta int) YearMonth {
	t := time.Date(m.Year, m.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (m YearMonth) Compare(o YearMonth) int {
	if m.Year != o.Year {
		return cmpInt(m.Year, o.Year)
	}
	return cmpInt(int(m.Month), int(o.Month))
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
