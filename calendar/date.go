/*
Package calendar provides the civil-date primitives used by the time accounting engine.

PURPOSE:
  Time entries are recorded against a calendar day, not an instant. Mixing
  time.Time values with different clocks and zones leads to off-by-one-day
  bugs around midnight and DST, so every day-level computation goes through
  Date, which is always normalized to midnight UTC.

KEY CONCEPTS:
  - Date:            A calendar day (year, month, day) with no time of day
  - Period:          An inclusive [Start, End] range of dates
  - ISO week:        Monday-starting week, week 1 holds the year's first Thursday
  - HolidayCalendar: Days that are not working days even though they are weekdays

USAGE:
  d, err := calendar.ParseDate("2024-12-30")
  d.WeekKey()          // "2025-W01"
  d.StartOfISOWeek()   // 2024-12-30 (Monday)

SEE ALSO:
  - period.go: Ranges, clamping and working-day counting
  - errors.go: Sentinel and structured errors shared by all packages
*/
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a Date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	Time time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and defaults.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Compare returns -1, 0 or +1, suitable for slices.SortFunc.
func (d Date) Compare(other Date) int { return d.Time.Compare(other.Time) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

// At returns the instant at hour:minute of this day in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD (JSON and YAML use this).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes YYYY-MM-DD. An empty string yields the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// ISO WEEKS
// =============================================================================

// ISOWeek returns the ISO-8601 year and week number of d.
func (d Date) ISOWeek() (year, week int) { return d.Time.ISOWeek() }

// WeekKey returns the ISO week label, e.g. "2024-W01".
func (d Date) WeekKey() string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// StartOfISOWeek returns the Monday of d's ISO week.
func (d Date) StartOfISOWeek() Date {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7 // Sunday closes the ISO week
	}
	return d.AddDays(-(wd - 1))
}

// FridayOfISOWeek returns Monday+4 of d's ISO week.
func (d Date) FridayOfISOWeek() Date {
	return d.StartOfISOWeek().AddDays(4)
}

// ParseWeekKey parses "YYYY-Www" and returns the Monday of that ISO week.
func ParseWeekKey(key string) (Date, error) {
	var year, week int
	if len(key) != len("2006-W01") {
		return Date{}, fmt.Errorf("%w: week key %q", ErrInvalidDate, key)
	}
	if _, err := fmt.Sscanf(key, "%4d-W%2d", &year, &week); err != nil || week < 1 || week > 53 {
		return Date{}, fmt.Errorf("%w: week key %q", ErrInvalidDate, key)
	}
	// January 4th is always in ISO week 1.
	monday := NewDate(year, time.January, 4).StartOfISOWeek().AddDays((week - 1) * 7)
	if monday.WeekKey() != fmt.Sprintf("%04d-W%02d", year, week) {
		return Date{}, fmt.Errorf("%w: week key %q", ErrInvalidDate, key)
	}
	return monday, nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayCalendar reports days that are not working days.
type HolidayCalendar interface {
	IsHoliday(d Date) bool
}

// NoHolidays treats every weekday as a working day.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Date) bool { return false }

// FixedHolidays is a set of specific dates.
type FixedHolidays map[Date]string

// NewFixedHolidays builds a calendar from dates, naming each by its date.
func NewFixedHolidays(dates ...Date) FixedHolidays {
	h := make(FixedHolidays, len(dates))
	for _, d := range dates {
		h[d] = d.String()
	}
	return h
}

func (h FixedHolidays) IsHoliday(d Date) bool {
	_, ok := h[d]
	return ok
}

// IsWorkdayIn reports whether d is a weekday and not a holiday in cal.
func (d Date) IsWorkdayIn(cal HolidayCalendar) bool {
	if d.IsWeekend() {
		return false
	}
	return cal == nil || !cal.IsHoliday(d)
}

// =============================================================================
// UTILITIES
// =============================================================================

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	return StartOfMonth(year, month).AddMonths(1).AddDays(-1)
}
