/*
Package timeaccount turns a stream of time-tracking entries into hour ledgers.

PURPOSE:
  Everything in this package is a pure, deterministic computation over an
  in-memory list of entries. Nothing here fetches, caches, retries or stores;
  callers own the entry list and pass it in on every call.

COMPONENTS (leaves first):
  - Classifier:            absence / time-off-in-lieu / continuing education / billable
  - Week Bucketer:         ISO week partitioning with Monday/Friday boundaries
  - Pattern Detector:      7.5h vs 8h standard day inferred from billable history
  - Balance Calculator:    weekly and cumulative logged/expected/balance ledger
  - Budget Calculator:     continuing education ("fagtimer") budget usage
  - Eligibility Evaluator: weekly lottery verdict with an auditable reason

DESIGN PRINCIPLES:
  1. Precision: hours are decimal.Decimal so sums reconcile exactly
  2. Explicit parameters: keyword lists and constants live in Rules, not globals
  3. Outcomes are data: failed business rules are reasons, never errors
  4. Immutability: entries are read, never modified

USAGE:
  engine := timeaccount.Default()
  balance, err := engine.CalculateTimeBalance(entries, period)
  verdict := engine.CheckEligibility(weekEntries, "2024-03-08")

SEE ALSO:
  - rules.go: Configuration constants and defaults
  - harvest/adapter.go: Builds TimeEntry values from provider payloads
*/
package timeaccount

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

// =============================================================================
// TIME ENTRY - Read-only input
// =============================================================================

// NamedRef is a provider object reference (project, client, task).
type NamedRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// TimeEntry is one logged block of hours on a single calendar day.
type TimeEntry struct {
	ID        int64           `json:"id"`
	SpentDate calendar.Date   `json:"spent_date"`
	Hours     decimal.Decimal `json:"hours"`
	Project   NamedRef        `json:"project"`
	Client    *NamedRef       `json:"client"` // nil for internal, non-billable work
	Task      NamedRef        `json:"task"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LatestChange returns the later of CreatedAt and UpdatedAt.
func (e TimeEntry) LatestChange() time.Time {
	if e.UpdatedAt.After(e.CreatedAt) {
		return e.UpdatedAt
	}
	return e.CreatedAt
}

// =============================================================================
// WEEK BUCKET
// =============================================================================

// WeekBucket holds the entries of one ISO week.
type WeekBucket struct {
	WeekKey   string        `json:"week_key"`   // e.g. "2024-W01"
	WeekStart calendar.Date `json:"week_start"` // Monday
	WeekEnd   calendar.Date `json:"week_end"`   // Friday
	Entries   []TimeEntry   `json:"entries"`
}

// Workweek returns the Monday-Friday period of the bucket.
func (b WeekBucket) Workweek() calendar.Period {
	return calendar.Period{Start: b.WeekStart, End: b.WeekEnd}
}

// =============================================================================
// BALANCES
// =============================================================================

// WeekBalance is one row of the weekly ledger.
type WeekBalance struct {
	WeekKey           string          `json:"week_key"`
	WeekStart         calendar.Date   `json:"week_start"`
	WeekEnd           calendar.Date   `json:"week_end"`
	WorkingDays       int             `json:"working_days"`
	Logged            decimal.Decimal `json:"logged"`
	Expected          decimal.Decimal `json:"expected"`
	TimeOffInLieu     decimal.Decimal `json:"time_off_in_lieu"`
	Balance           decimal.Decimal `json:"balance"`
	CumulativeBalance decimal.Decimal `json:"cumulative_balance"`
}

// TimeBalance aggregates the weekly ledger over a reporting period.
//
// Balance subtracts time-off-in-lieu once at this level; weekly rows do not.
type TimeBalance struct {
	Period             calendar.Period `json:"period"`
	TotalLogged        decimal.Decimal `json:"total_logged"`
	TotalExpected      decimal.Decimal `json:"total_expected"`
	TotalTimeOffInLieu decimal.Decimal `json:"total_time_off_in_lieu"`
	Balance            decimal.Decimal `json:"balance"`
	WeeklyBreakdown    []WeekBalance   `json:"weekly_breakdown"`
}

// FagtimerMonth is the continuing education budget of one calendar month.
type FagtimerMonth struct {
	Month     calendar.Date   `json:"month"` // first day of the month
	Excluded  bool            `json:"excluded"`
	Allowance decimal.Decimal `json:"allowance"`
	Used      decimal.Decimal `json:"used"`
}

// FagtimerBalance is the continuing education budget status for a period.
type FagtimerBalance struct {
	Period     calendar.Period `json:"period"`
	Used       decimal.Decimal `json:"used"`
	Available  decimal.Decimal `json:"available"`
	Percentage decimal.Decimal `json:"percentage"`
	Months     []FagtimerMonth `json:"months"`
}

// WorkPattern is a standard working day/week length.
type WorkPattern struct {
	DailyTarget  decimal.Decimal `json:"daily_target"`
	WeeklyTarget decimal.Decimal `json:"weekly_target"`
	// Evidence behind a detected pattern; zero when the default was used.
	FullDays       int             `json:"full_days"`
	AverageFullDay decimal.Decimal `json:"average_full_day"`
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

// ReasonKey explains an eligibility verdict.
type ReasonKey string

const (
	ReasonNone                        ReasonKey = "none"
	ReasonMissingHours                ReasonKey = "missing_hours"
	ReasonEntriesUpdatedAfterDeadline ReasonKey = "entries_updated_after_deadline"

	// Structural input errors, not business-rule failures.
	ReasonInvalidDate ReasonKey = "invalid_date"
	ReasonNotFriday   ReasonKey = "not_friday"
)

// IsStructural reports whether the verdict came from bad input rather than
// from evaluating the week.
func (r ReasonKey) IsStructural() bool {
	return r == ReasonInvalidDate || r == ReasonNotFriday
}

// ReasonData carries the evidence for a ReasonKey.
type ReasonData struct {
	MissingDays  []calendar.Date `json:"missing_days,omitempty"`
	LatestUpdate *time.Time      `json:"latest_update,omitempty"`
	Input        string          `json:"input,omitempty"` // rejected date string for structural reasons
}

// DailyHours is the per-weekday evaluation.
type DailyHours struct {
	Date              calendar.Date   `json:"date"`
	Weekday           time.Weekday    `json:"weekday"`
	Hours             decimal.Decimal `json:"hours"`
	MeetsRequirement  bool            `json:"meets_requirement"`
	LastUpdated       *time.Time      `json:"last_updated,omitempty"`
	EditedAfterCutoff bool            `json:"edited_after_cutoff"`
}

// EligibilityResult is the weekly lottery verdict.
type EligibilityResult struct {
	IsEligible      bool          `json:"is_eligible"`
	Reason          ReasonKey     `json:"reason_key"`
	ReasonData      ReasonData    `json:"reason_data"`
	WeekKey         string        `json:"week_key,omitempty"`
	DailyHours      []DailyHours  `json:"daily_hours"`
	CutoffTime      time.Time     `json:"cutoff_time"`
	LatestEntryTime *time.Time    `json:"latest_entry_time,omitempty"`
	Friday          calendar.Date `json:"friday"`
}
