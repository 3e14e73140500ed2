/*
balance.go - Weekly and cumulative hour balance

PURPOSE:
  Answers "am I ahead or behind on hours?" for a reporting period, week by
  week, with a running total that always reconciles.

PER WEEK:
  Logged        = all hours in the week, absence included (absence is paid time)
  Expected      = working days in (week ∩ period) × ExpectedDailyHours
  TimeOffInLieu = hours classified as time off in lieu (reported, not subtracted)
  Balance       = Logged - Expected
  Cumulative    = previous Cumulative + Balance

AGGREGATE:
  Balance = (TotalLogged - TotalTimeOffInLieu) - TotalExpected

  Time off in lieu withdraws hours already banked, so it is subtracted once
  at the aggregate level. Weekly rows keep Logged - Expected.

PARTIAL WEEKS:
  The first and last week of the period are prorated by clamping the
  Monday-Friday week to the period before counting working days.
*/
package timeaccount

import (
	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

// CalculateTimeBalance builds the weekly ledger for entries within p.
// Weeks without entries still appear. An empty entry list is valid.
func (e *Engine) CalculateTimeBalance(entries []TimeEntry, p calendar.Period) (TimeBalance, error) {
	if err := p.Validate(); err != nil {
		return TimeBalance{}, err
	}

	result := TimeBalance{
		Period:             p,
		TotalLogged:        decimal.Zero,
		TotalExpected:      decimal.Zero,
		TotalTimeOffInLieu: decimal.Zero,
		WeeklyBreakdown:    []WeekBalance{},
	}

	cumulative := decimal.Zero
	for _, bucket := range BucketPeriod(entries, p) {
		week := e.weekBalance(bucket, p)
		cumulative = cumulative.Add(week.Balance)
		week.CumulativeBalance = cumulative

		result.TotalLogged = result.TotalLogged.Add(week.Logged)
		result.TotalExpected = result.TotalExpected.Add(week.Expected)
		result.TotalTimeOffInLieu = result.TotalTimeOffInLieu.Add(week.TimeOffInLieu)
		result.WeeklyBreakdown = append(result.WeeklyBreakdown, week)
	}

	result.Balance = result.TotalLogged.Sub(result.TotalTimeOffInLieu).Sub(result.TotalExpected)
	return result, nil
}

func (e *Engine) weekBalance(bucket WeekBucket, p calendar.Period) WeekBalance {
	logged := decimal.Zero
	toil := decimal.Zero
	for _, entry := range bucket.Entries {
		logged = logged.Add(entry.Hours)
		if e.IsTimeOffInLieu(entry) {
			toil = toil.Add(entry.Hours)
		}
	}

	workingDays := 0
	if overlap, ok := bucket.Workweek().Intersect(p); ok {
		workingDays = overlap.WorkingDays(e.rules.Holidays)
	}
	expected := e.rules.ExpectedDailyHours.Mul(decimal.NewFromInt(int64(workingDays)))

	return WeekBalance{
		WeekKey:       bucket.WeekKey,
		WeekStart:     bucket.WeekStart,
		WeekEnd:       bucket.WeekEnd,
		WorkingDays:   workingDays,
		Logged:        logged,
		Expected:      expected,
		TimeOffInLieu: toil,
		Balance:       logged.Sub(expected),
	}
}
