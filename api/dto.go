/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The engine works in
  decimal hours and civil dates; the API speaks float64 hours and
  YYYY-MM-DD strings so any client can consume it.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Complex response wrappers

TYPES:
  Balance:     TimeBalanceDTO, WeekBalanceDTO
  Fagtimer:    FagtimerBalanceDTO, FagtimerMonthDTO
  Pattern:     PatternDTO
  Eligibility: EligibilityDTO, DailyHoursDTO, ReasonDataDTO, VerdictDTO
  Ingest:      ImportResponse, SyncResponse

SEE ALSO:
  - handlers.go: Uses these types
  - timeaccount/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/store"
	"github.com/warp/timebank/timeaccount"
)

// =============================================================================
// BALANCE
// =============================================================================

type WeekBalanceDTO struct {
	WeekKey           string  `json:"week_key"`
	WeekStart         string  `json:"week_start"`
	WeekEnd           string  `json:"week_end"`
	WorkingDays       int     `json:"working_days"`
	Logged            float64 `json:"logged"`
	Expected          float64 `json:"expected"`
	TimeOffInLieu     float64 `json:"time_off_in_lieu"`
	Balance           float64 `json:"balance"`
	CumulativeBalance float64 `json:"cumulative_balance"`
}

// TimeBalanceDTO is the flex balance for a date range.
type TimeBalanceDTO struct {
	UserID             string           `json:"user_id"`
	From               string           `json:"from"`
	To                 string           `json:"to"`
	TotalLogged        float64          `json:"total_logged"`
	TotalExpected      float64          `json:"total_expected"`
	TotalTimeOffInLieu float64          `json:"total_time_off_in_lieu"`
	Balance            float64          `json:"balance"`
	WeeklyBreakdown    []WeekBalanceDTO `json:"weekly_breakdown"`
}

// =============================================================================
// FAGTIMER
// =============================================================================

type FagtimerMonthDTO struct {
	Month     string  `json:"month"` // YYYY-MM
	Excluded  bool    `json:"excluded"`
	Allowance float64 `json:"allowance"`
	Used      float64 `json:"used"`
}

type FagtimerBalanceDTO struct {
	UserID     string             `json:"user_id"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Used       float64            `json:"used"`
	Available  float64            `json:"available"`
	Percentage float64            `json:"percentage"`
	Months     []FagtimerMonthDTO `json:"months"`
}

// =============================================================================
// PATTERN
// =============================================================================

// PatternDTO reports the detected work pattern and how much of the last
// week's target is not yet covered by billable hours.
type PatternDTO struct {
	UserID           string  `json:"user_id"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	DailyTarget      float64 `json:"daily_target"`
	WeeklyTarget     float64 `json:"weekly_target"`
	FullDays         int     `json:"full_days"`
	AverageFullDay   float64 `json:"average_full_day"`
	WeekKey          string  `json:"week_key"`
	BillableHours    float64 `json:"billable_hours"`
	PossibleOvertime float64 `json:"possible_overtime"`
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

type DailyHoursDTO struct {
	Date              string  `json:"date"`
	Weekday           string  `json:"weekday"`
	Hours             float64 `json:"hours"`
	MeetsRequirement  bool    `json:"meets_requirement"`
	LastUpdated       *string `json:"last_updated,omitempty"`
	EditedAfterCutoff bool    `json:"edited_after_cutoff"`
}

type ReasonDataDTO struct {
	MissingDays  []string `json:"missing_days,omitempty"`
	LatestUpdate *string  `json:"latest_update,omitempty"`
	Input        string   `json:"input,omitempty"`
}

// EligibilityDTO is the weekly lottery verdict with its audit trail.
type EligibilityDTO struct {
	UserID          string          `json:"user_id"`
	IsEligible      bool            `json:"is_eligible"`
	ReasonKey       string          `json:"reason_key"`
	ReasonData      ReasonDataDTO   `json:"reason_data"`
	WeekKey         string          `json:"week_key,omitempty"`
	Friday          string          `json:"friday,omitempty"`
	CutoffTime      *string         `json:"cutoff_time,omitempty"`
	LatestEntryTime *string         `json:"latest_entry_time,omitempty"`
	DailyHours      []DailyHoursDTO `json:"daily_hours"`
}

// VerdictDTO is a recorded eligibility verdict.
type VerdictDTO struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	WeekKey     string   `json:"week_key"`
	Eligible    bool     `json:"eligible"`
	ReasonKey   string   `json:"reason_key"`
	MissingDays []string `json:"missing_days,omitempty"`
	EvaluatedAt string   `json:"evaluated_at"`
}

// =============================================================================
// INGEST
// =============================================================================

type ImportResponse struct {
	UserID  string `json:"user_id"`
	Entries int    `json:"entries"`
}

type SyncResponse struct {
	UserID  string `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Entries int    `json:"entries"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func hours(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func timeString(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func dateStrings(dates []calendar.Date) []string {
	if len(dates) == 0 {
		return nil
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

func toTimeBalanceDTO(userID string, b timeaccount.TimeBalance) TimeBalanceDTO {
	weeks := make([]WeekBalanceDTO, len(b.WeeklyBreakdown))
	for i, w := range b.WeeklyBreakdown {
		weeks[i] = WeekBalanceDTO{
			WeekKey:           w.WeekKey,
			WeekStart:         w.WeekStart.String(),
			WeekEnd:           w.WeekEnd.String(),
			WorkingDays:       w.WorkingDays,
			Logged:            hours(w.Logged),
			Expected:          hours(w.Expected),
			TimeOffInLieu:     hours(w.TimeOffInLieu),
			Balance:           hours(w.Balance),
			CumulativeBalance: hours(w.CumulativeBalance),
		}
	}
	return TimeBalanceDTO{
		UserID:             userID,
		From:               b.Period.Start.String(),
		To:                 b.Period.End.String(),
		TotalLogged:        hours(b.TotalLogged),
		TotalExpected:      hours(b.TotalExpected),
		TotalTimeOffInLieu: hours(b.TotalTimeOffInLieu),
		Balance:            hours(b.Balance),
		WeeklyBreakdown:    weeks,
	}
}

func toFagtimerBalanceDTO(userID string, b timeaccount.FagtimerBalance) FagtimerBalanceDTO {
	months := make([]FagtimerMonthDTO, len(b.Months))
	for i, m := range b.Months {
		months[i] = FagtimerMonthDTO{
			Month:     m.Month.Time.Format("2006-01"),
			Excluded:  m.Excluded,
			Allowance: hours(m.Allowance),
			Used:      hours(m.Used),
		}
	}
	return FagtimerBalanceDTO{
		UserID:     userID,
		From:       b.Period.Start.String(),
		To:         b.Period.End.String(),
		Used:       hours(b.Used),
		Available:  hours(b.Available),
		Percentage: hours(b.Percentage),
		Months:     months,
	}
}

func toEligibilityDTO(userID string, r timeaccount.EligibilityResult) EligibilityDTO {
	days := make([]DailyHoursDTO, len(r.DailyHours))
	for i, d := range r.DailyHours {
		days[i] = DailyHoursDTO{
			Date:              d.Date.String(),
			Weekday:           d.Weekday.String(),
			Hours:             hours(d.Hours),
			MeetsRequirement:  d.MeetsRequirement,
			LastUpdated:       timeString(d.LastUpdated),
			EditedAfterCutoff: d.EditedAfterCutoff,
		}
	}
	return EligibilityDTO{
		UserID:     userID,
		IsEligible: r.IsEligible,
		ReasonKey:  string(r.Reason),
		ReasonData: ReasonDataDTO{
			MissingDays:  dateStrings(r.ReasonData.MissingDays),
			LatestUpdate: timeString(r.ReasonData.LatestUpdate),
			Input:        r.ReasonData.Input,
		},
		WeekKey:         r.WeekKey,
		Friday:          r.Friday.String(),
		CutoffTime:      timeString(&r.CutoffTime),
		LatestEntryTime: timeString(r.LatestEntryTime),
		DailyHours:      days,
	}
}

func toVerdictDTO(v store.Verdict) VerdictDTO {
	return VerdictDTO{
		ID:          v.ID.String(),
		UserID:      v.UserID,
		WeekKey:     v.WeekKey,
		Eligible:    v.Eligible,
		ReasonKey:   string(v.Reason),
		MissingDays: dateStrings(v.MissingDays),
		EvaluatedAt: v.EvaluatedAt.Format(time.RFC3339),
	}
}
