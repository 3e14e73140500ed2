package timeaccount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
)

func fagtimer(d calendar.Date, hours string) timeaccount.TimeEntry {
	return entry(d, hours, "Kompetanse", &timeaccount.NamedRef{Name: "Variant Internal"}, "Fagtimer")
}

func TestCalculateFagtimerBalance_ExcludedMonthEarnsNothing(t *testing.T) {
	// GIVEN: May 15 - July 10, July is excluded
	// THEN: May and June earn 8h each regardless of July entries
	engine := newTestEngine(t)
	entries := []timeaccount.TimeEntry{
		fagtimer(calendar.MustParseDate("2024-05-20"), "2"),
		fagtimer(calendar.MustParseDate("2024-07-02"), "3"),
	}

	result, err := engine.CalculateFagtimerBalance(entries, period(t, "2024-05-15", "2024-07-10"))
	require.NoError(t, err)

	assert.True(t, h("16").Equal(result.Available))
	assert.True(t, h("5").Equal(result.Used))
	assert.True(t, h("31.25").Equal(result.Percentage))

	require.Len(t, result.Months, 3)
	assert.Equal(t, time.July, result.Months[2].Month.Month())
	assert.True(t, result.Months[2].Excluded)
	assert.True(t, h("0").Equal(result.Months[2].Allowance))
	assert.True(t, h("3").Equal(result.Months[2].Used))
	assert.True(t, h("2").Equal(result.Months[0].Used))
}

func TestCalculateFagtimerBalance_OnlyContinuingEducationCounts(t *testing.T) {
	engine := newTestEngine(t)
	entries := []timeaccount.TimeEntry{
		fagtimer(calendar.MustParseDate("2024-03-05"), "4"),
		work(calendar.MustParseDate("2024-03-05"), "4"),
		internal(calendar.MustParseDate("2024-03-06"), "4", "Kompetanse", "Fagtimer"),
		fagtimer(calendar.MustParseDate("2024-04-01"), "4"), // outside range
	}

	result, err := engine.CalculateFagtimerBalance(entries, period(t, "2024-03-01", "2024-03-31"))
	require.NoError(t, err)

	assert.True(t, h("4").Equal(result.Used))
	assert.True(t, h("8").Equal(result.Available))
	assert.True(t, h("50").Equal(result.Percentage))
}

func TestCalculateFagtimerBalance_PercentageCapsAtHundred(t *testing.T) {
	engine := newTestEngine(t)
	entries := []timeaccount.TimeEntry{fagtimer(calendar.MustParseDate("2024-03-05"), "20")}

	result, err := engine.CalculateFagtimerBalance(entries, period(t, "2024-03-05", "2024-03-05"))
	require.NoError(t, err)

	assert.True(t, h("8").Equal(result.Available), "a partial month earns the full allowance")
	assert.True(t, h("100").Equal(result.Percentage))
}

func TestCalculateFagtimerBalance_NothingAvailable(t *testing.T) {
	engine := newTestEngine(t)
	entries := []timeaccount.TimeEntry{fagtimer(calendar.MustParseDate("2024-12-05"), "2")}

	result, err := engine.CalculateFagtimerBalance(entries, period(t, "2024-12-01", "2025-01-31"))
	require.NoError(t, err)

	assert.True(t, result.Available.IsZero())
	assert.True(t, result.Percentage.IsZero())
	assert.True(t, h("2").Equal(result.Used))
}

func TestCalculateFagtimerBalance_InvalidPeriod(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.CalculateFagtimerBalance(nil, calendar.Period{Start: fri})

	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)
}
