package timeaccount

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

// =============================================================================
// RULES - Every constant the engine consumes
// =============================================================================

// Rules parameterizes classification and the hour calculations. Keyword
// matching is case-insensitive substring matching.
type Rules struct {
	// Classifier
	AbsenceProjectKeywords []string
	AbsenceTaskKeywords    []string
	TimeOffInLieuKeywords  []string
	InternalClientKeywords []string
	CompetencyTaskKeywords []string

	// Balance Calculator
	ExpectedDailyHours decimal.Decimal
	Holidays           calendar.HolidayCalendar

	// Budget Calculator
	MonthlyFagtimerAllowance decimal.Decimal
	ExcludedFagtimerMonths   []time.Month

	// Eligibility Evaluator
	EligibilityDailyHours decimal.Decimal
	CutoffHour            int
	CutoffMinute          int
	Location              *time.Location

	// Pattern Detector
	FullDayThreshold        decimal.Decimal
	MinFullDays             int
	PatternAverageThreshold decimal.Decimal
	ShortPattern            WorkPattern
	StandardPattern         WorkPattern
}

// DefaultRules returns the English and Norwegian defaults.
func DefaultRules() Rules {
	return Rules{
		AbsenceProjectKeywords: []string{"absence", "fravær"},
		AbsenceTaskKeywords: []string{
			"vacation", "sick leave", "sick child", "parental leave", "leave of absence", "time off",
			"ferie", "sykdom", "syk barn", "egenmelding", "sykemelding", "permisjon", "avspasering",
		},
		TimeOffInLieuKeywords:  []string{"avspasering", "time off in lieu"},
		InternalClientKeywords: []string{"internal", "intern"},
		CompetencyTaskKeywords: []string{"fagtimer", "competency", "kompetanse"},

		ExpectedDailyHours: decimal.NewFromInt(8),
		Holidays:           calendar.NoHolidays{},

		MonthlyFagtimerAllowance: decimal.NewFromInt(8),
		ExcludedFagtimerMonths:   []time.Month{time.January, time.July, time.August, time.December},

		EligibilityDailyHours: decimal.NewFromInt(8),
		CutoffHour:            15,
		CutoffMinute:          0,
		Location:              time.Local,

		FullDayThreshold:        decimal.NewFromInt(7),
		MinFullDays:             5,
		PatternAverageThreshold: decimal.RequireFromString("7.75"),
		ShortPattern: WorkPattern{
			DailyTarget:  decimal.RequireFromString("7.5"),
			WeeklyTarget: decimal.RequireFromString("37.5"),
		},
		StandardPattern: WorkPattern{
			DailyTarget:  decimal.NewFromInt(8),
			WeeklyTarget: decimal.NewFromInt(40),
		},
	}
}

// Validate rejects rules the engine cannot evaluate meaningfully.
func (r Rules) Validate() error {
	keywordSets := map[string][]string{
		"absence project keywords":  r.AbsenceProjectKeywords,
		"absence task keywords":     r.AbsenceTaskKeywords,
		"time off in lieu keywords": r.TimeOffInLieuKeywords,
		"internal client keywords":  r.InternalClientKeywords,
		"competency task keywords":  r.CompetencyTaskKeywords,
	}
	for name, set := range keywordSets {
		if len(normalizeKeywords(set)) == 0 {
			return fmt.Errorf("%w: %s is empty", calendar.ErrInvalidRules, name)
		}
	}
	positives := map[string]decimal.Decimal{
		"expected daily hours":       r.ExpectedDailyHours,
		"monthly fagtimer allowance": r.MonthlyFagtimerAllowance,
		"eligibility daily hours":    r.EligibilityDailyHours,
		"full day threshold":         r.FullDayThreshold,
		"pattern average threshold":  r.PatternAverageThreshold,
	}
	for name, v := range positives {
		if !v.IsPositive() {
			return fmt.Errorf("%w: %s must be positive, got %s", calendar.ErrInvalidRules, name, v)
		}
	}
	if r.CutoffHour < 0 || r.CutoffHour > 23 || r.CutoffMinute < 0 || r.CutoffMinute > 59 {
		return fmt.Errorf("%w: cutoff %02d:%02d", calendar.ErrInvalidRules, r.CutoffHour, r.CutoffMinute)
	}
	if r.MinFullDays < 1 {
		return fmt.Errorf("%w: min full days must be at least 1", calendar.ErrInvalidRules)
	}
	for _, m := range r.ExcludedFagtimerMonths {
		if m < time.January || m > time.December {
			return fmt.Errorf("%w: excluded month %d", calendar.ErrInvalidRules, m)
		}
	}
	return nil
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine evaluates entries against a fixed set of Rules. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	rules    Rules
	excluded map[time.Month]bool
}

// NewEngine validates rules and returns an engine bound to them.
func NewEngine(rules Rules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules.AbsenceProjectKeywords = normalizeKeywords(rules.AbsenceProjectKeywords)
	rules.AbsenceTaskKeywords = normalizeKeywords(rules.AbsenceTaskKeywords)
	rules.TimeOffInLieuKeywords = normalizeKeywords(rules.TimeOffInLieuKeywords)
	rules.InternalClientKeywords = normalizeKeywords(rules.InternalClientKeywords)
	rules.CompetencyTaskKeywords = normalizeKeywords(rules.CompetencyTaskKeywords)
	if rules.Holidays == nil {
		rules.Holidays = calendar.NoHolidays{}
	}
	if rules.Location == nil {
		rules.Location = time.Local
	}

	excluded := make(map[time.Month]bool, len(rules.ExcludedFagtimerMonths))
	for _, m := range rules.ExcludedFagtimerMonths {
		excluded[m] = true
	}
	return &Engine{rules: rules, excluded: excluded}, nil
}

// Default returns an engine using DefaultRules.
func Default() *Engine {
	e, err := NewEngine(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns the normalized rules the engine was built with.
func (e *Engine) Rules() Rules { return e.rules }
