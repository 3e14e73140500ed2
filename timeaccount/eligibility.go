/*
eligibility.go - Weekly lottery eligibility

PURPOSE:
  Decides whether an employee's week qualifies for the weekly draw and says
  why not when it does not.

RULES:
  1. Every weekday Monday-Friday has at least EligibilityDailyHours logged.
  2. No entry of the week was created or updated after Friday at the cutoff
     (15:00 in Rules.Location). The later of created/updated is used so that
     a new entry backdated into the week is caught too.

REASON PRIORITY:
  missing_hours is reported before entries_updated_after_deadline when both
  rules fail. Structural input problems (unparseable or non-Friday date)
  short-circuit with invalid_date / not_friday and no daily breakdown.
*/
package timeaccount

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

// CheckEligibility evaluates the week ending on friday (YYYY-MM-DD).
func (e *Engine) CheckEligibility(weekEntries []TimeEntry, friday string) EligibilityResult {
	date, err := calendar.ParseDate(friday)
	if err != nil {
		return structuralFailure(ReasonInvalidDate, friday)
	}
	return e.CheckEligibilityFor(weekEntries, date)
}

// CheckEligibilityFor is CheckEligibility for an already parsed date.
func (e *Engine) CheckEligibilityFor(weekEntries []TimeEntry, friday calendar.Date) EligibilityResult {
	if friday.IsZero() {
		return structuralFailure(ReasonInvalidDate, "")
	}
	if friday.Weekday() != time.Friday {
		return structuralFailure(ReasonNotFriday, friday.String())
	}

	monday := friday.AddDays(-4)
	cutoff := friday.At(e.rules.CutoffHour, e.rules.CutoffMinute, e.rules.Location)

	days := make([]DailyHours, 5)
	for i := range days {
		d := monday.AddDays(i)
		days[i] = DailyHours{Date: d, Weekday: d.Weekday(), Hours: decimal.Zero}
	}

	var latest *time.Time
	for _, entry := range weekEntries {
		if entry.SpentDate.Before(monday) || entry.SpentDate.After(friday) {
			continue
		}
		day := &days[calendar.DaysBetween(monday, entry.SpentDate)]
		day.Hours = day.Hours.Add(entry.Hours)

		changed := entry.LatestChange()
		if changed.IsZero() {
			continue
		}
		if day.LastUpdated == nil || changed.After(*day.LastUpdated) {
			day.LastUpdated = &changed
		}
		if latest == nil || changed.After(*latest) {
			latest = &changed
		}
	}

	var missing []calendar.Date
	late := false
	for i := range days {
		day := &days[i]
		day.MeetsRequirement = day.Hours.GreaterThanOrEqual(e.rules.EligibilityDailyHours)
		if !day.MeetsRequirement {
			missing = append(missing, day.Date)
		}
		day.EditedAfterCutoff = day.LastUpdated != nil && day.LastUpdated.After(cutoff)
		late = late || day.EditedAfterCutoff
	}
	late = late || (latest != nil && latest.After(cutoff))

	result := EligibilityResult{
		Reason:          ReasonNone,
		WeekKey:         friday.WeekKey(),
		DailyHours:      days,
		CutoffTime:      cutoff,
		LatestEntryTime: latest,
		Friday:          friday,
	}
	switch {
	case len(missing) > 0:
		result.Reason = ReasonMissingHours
		result.ReasonData.MissingDays = missing
	case late:
		result.Reason = ReasonEntriesUpdatedAfterDeadline
		result.ReasonData.LatestUpdate = latest
	default:
		result.IsEligible = true
	}
	return result
}

func structuralFailure(reason ReasonKey, input string) EligibilityResult {
	return EligibilityResult{
		Reason:     reason,
		ReasonData: ReasonData{Input: input},
		DailyHours: []DailyHours{},
	}
}
