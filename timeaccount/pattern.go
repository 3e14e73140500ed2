package timeaccount

import (
	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

// =============================================================================
// PATTERN DETECTOR
// =============================================================================

// DetectPattern infers the standard working day from billable history.
//
// Billable hours are summed per date; dates at or above FullDayThreshold are
// full days. With fewer than MinFullDays full days the StandardPattern is
// returned. Otherwise a full-day average at or below PatternAverageThreshold
// selects ShortPattern.
func (e *Engine) DetectPattern(entries []TimeEntry) WorkPattern {
	perDay := make(map[calendar.Date]decimal.Decimal)
	for _, entry := range entries {
		if !IsBillable(entry) {
			continue
		}
		perDay[entry.SpentDate] = perDay[entry.SpentDate].Add(entry.Hours)
	}

	sum := decimal.Zero
	fullDays := 0
	for _, hours := range perDay {
		if hours.GreaterThanOrEqual(e.rules.FullDayThreshold) {
			sum = sum.Add(hours)
			fullDays++
		}
	}
	if fullDays < e.rules.MinFullDays {
		return e.rules.StandardPattern
	}

	average := sum.Div(decimal.NewFromInt(int64(fullDays)))
	pattern := e.rules.StandardPattern
	if average.LessThanOrEqual(e.rules.PatternAverageThreshold) {
		pattern = e.rules.ShortPattern
	}
	pattern.FullDays = fullDays
	pattern.AverageFullDay = average
	return pattern
}

// BillableHours sums billable hours with spent dates in p.
func BillableHours(entries []TimeEntry, p calendar.Period) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		if IsBillable(entry) && p.Contains(entry.SpentDate) {
			total = total.Add(entry.Hours)
		}
	}
	return total
}

// PossibleOvertime is the weekly target not yet covered by billable hours,
// never negative.
func PossibleOvertime(pattern WorkPattern, billable decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, pattern.WeeklyTarget.Sub(billable))
}
