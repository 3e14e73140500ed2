package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. Reporting ranges, ISO weeks and
// calendar months are all Periods.
type Period struct {
	Start Date `json:"from"`
	End   Date `json:"to"`
}

// NewPeriod builds a validated period.
func NewPeriod(from, to Date) (Period, error) {
	p := Period{Start: from, End: to}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ParsePeriod parses two YYYY-MM-DD strings into a validated period.
func ParsePeriod(from, to string) (Period, error) {
	start, err := ParseDate(from)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return Period{}, err
	}
	return NewPeriod(start, end)
}

// Validate fails when either bound is missing or End is before Start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return &PeriodError{Start: p.Start, End: p.End}
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Intersect returns the overlap of p and other, and false if they are disjoint.
func (p Period) Intersect(other Period) (Period, bool) {
	start, end := p.Start, p.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// WorkingDays counts the Monday-Friday days in the period that cal does not
// mark as holidays. A nil calendar has no holidays.
func (p Period) WorkingDays(cal HolidayCalendar) int {
	n := 0
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		if d.IsWorkdayIn(cal) {
			n++
		}
	}
	return n
}

// Months returns the first day of every calendar month touched by the period,
// from the month containing Start through the month containing End.
func (p Period) Months() []Date {
	var months []Date
	last := StartOfMonth(p.End.Year(), p.End.Month())
	for m := StartOfMonth(p.Start.Year(), p.Start.Month()); m.BeforeOrEqual(last); m = m.AddMonths(1) {
		months = append(months, m)
	}
	return months
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// COMMON PERIODS
// =============================================================================

// ISOWeekOf returns the Monday-Friday working week containing d.
func ISOWeekOf(d Date) Period {
	return Period{Start: d.StartOfISOWeek(), End: d.FridayOfISOWeek()}
}

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) Period {
	return Period{Start: StartOfMonth(d.Year(), d.Month()), End: EndOfMonth(d.Year(), d.Month())}
}

// YearToDate returns Jan 1 of d's year through d.
func YearToDate(d Date) Period {
	return Period{Start: NewDate(d.Year(), time.January, 1), End: d}
}

// TrailingWeeks returns the n ISO weeks ending with the week containing d,
// from that earliest Monday through d.
func TrailingWeeks(d Date, n int) Period {
	if n < 1 {
		n = 1
	}
	return Period{Start: d.StartOfISOWeek().AddDays(-7 * (n - 1)), End: d}
}
