package timeaccount

import (
	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// BUDGET CALCULATOR - Continuing education ("fagtimer")
// =============================================================================

// CalculateFagtimerBalance reports continuing education usage against the
// monthly allowance. Every month touched by p earns the full allowance unless
// it is excluded; partial months are not prorated.
func (e *Engine) CalculateFagtimerBalance(entries []TimeEntry, p calendar.Period) (FagtimerBalance, error) {
	if err := p.Validate(); err != nil {
		return FagtimerBalance{}, err
	}

	result := FagtimerBalance{
		Period:     p,
		Used:       decimal.Zero,
		Available:  decimal.Zero,
		Percentage: decimal.Zero,
	}

	monthIndex := make(map[calendar.Date]int)
	for i, start := range p.Months() {
		monthIndex[start] = i
		month := FagtimerMonth{
			Month:     start,
			Excluded:  e.excluded[start.Month()],
			Allowance: decimal.Zero,
			Used:      decimal.Zero,
		}
		if !month.Excluded {
			month.Allowance = e.rules.MonthlyFagtimerAllowance
			result.Available = result.Available.Add(month.Allowance)
		}
		result.Months = append(result.Months, month)
	}

	for _, entry := range entries {
		if !p.Contains(entry.SpentDate) || !e.IsContinuingEducation(entry) {
			continue
		}
		result.Used = result.Used.Add(entry.Hours)
		i := monthIndex[calendar.StartOfMonth(entry.SpentDate.Year(), entry.SpentDate.Month())]
		result.Months[i].Used = result.Months[i].Used.Add(entry.Hours)
	}

	if result.Available.IsPositive() {
		result.Percentage = decimal.Min(result.Used.Div(result.Available).Mul(hundred), hundred)
	}
	return result, nil
}
