package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
)

func TestParseDate(t *testing.T) {
	d, err := calendar.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2024, time.February, 29), d)

	_, err = calendar.ParseDate("2023-02-29")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
	assert.True(t, calendar.IsClientError(err))
}

func TestDateOf_UsesOwnLocation(t *testing.T) {
	oslo := time.FixedZone("CET", 3600)
	lateEvening := time.Date(2024, time.March, 8, 23, 30, 0, 0, oslo)

	assert.Equal(t, calendar.NewDate(2024, time.March, 8), calendar.DateOf(lateEvening))
}

func TestISOWeek(t *testing.T) {
	tests := []struct {
		date   string
		key    string
		monday string
		friday string
	}{
		{"2024-03-06", "2024-W10", "2024-03-04", "2024-03-08"},
		{"2024-03-10", "2024-W10", "2024-03-04", "2024-03-08"}, // Sunday
		{"2024-12-30", "2025-W01", "2024-12-30", "2025-01-03"},
		{"2021-01-03", "2020-W53", "2020-12-28", "2021-01-01"},
		{"2026-01-01", "2026-W01", "2025-12-29", "2026-01-02"},
	}
	for _, tt := range tests {
		d := calendar.MustParseDate(tt.date)
		assert.Equal(t, tt.key, d.WeekKey(), tt.date)
		assert.Equal(t, tt.monday, d.StartOfISOWeek().String(), tt.date)
		assert.Equal(t, tt.friday, d.FridayOfISOWeek().String(), tt.date)
	}
}

func TestParseWeekKey(t *testing.T) {
	monday, err := calendar.ParseWeekKey("2025-W01")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-30", monday.String())

	monday, err = calendar.ParseWeekKey("2020-W53")
	require.NoError(t, err)
	assert.Equal(t, "2020-12-28", monday.String())

	for _, bad := range []string{"2024-W54", "2024-W00", "2023-W53", "2024W01", "2024-W011"} {
		_, err := calendar.ParseWeekKey(bad)
		assert.ErrorIs(t, err, calendar.ErrInvalidDate, bad)
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Day calendar.Date `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2024-03-08"}`), &v))
	assert.Equal(t, "2024-03-08", v.Day.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2024-03-08"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"day":"08/03/2024"}`), &v))
}

func TestPeriod_Validate(t *testing.T) {
	_, err := calendar.ParsePeriod("2024-03-08", "2024-03-04")
	var periodErr *calendar.PeriodError
	require.ErrorAs(t, err, &periodErr)
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	p, err := calendar.ParsePeriod("2024-03-04", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, p.Contains(calendar.MustParseDate("2024-03-04")))
	assert.False(t, p.Contains(calendar.MustParseDate("2024-03-05")))
}

func TestPeriod_Intersect(t *testing.T) {
	week := calendar.ISOWeekOf(calendar.MustParseDate("2024-03-06"))
	p := calendar.Period{Start: calendar.MustParseDate("2024-03-06"), End: calendar.MustParseDate("2024-03-31")}

	overlap, ok := week.Intersect(p)
	require.True(t, ok)
	assert.Equal(t, "[2024-03-06, 2024-03-08]", overlap.String())

	_, ok = week.Intersect(calendar.MonthOf(calendar.MustParseDate("2024-05-01")))
	assert.False(t, ok)
}

func TestPeriod_WorkingDays(t *testing.T) {
	march := calendar.MonthOf(calendar.MustParseDate("2024-03-15"))
	assert.Equal(t, 21, march.WorkingDays(nil))

	easter := calendar.NewFixedHolidays(
		calendar.MustParseDate("2024-03-28"),
		calendar.MustParseDate("2024-03-29"),
		calendar.MustParseDate("2024-03-31"), // Sunday, already not a working day
	)
	assert.Equal(t, 19, march.WorkingDays(easter))
	assert.Equal(t, 21, march.WorkingDays(calendar.NoHolidays{}))
}

func TestPeriod_Months(t *testing.T) {
	p := calendar.Period{Start: calendar.MustParseDate("2024-11-30"), End: calendar.MustParseDate("2025-02-01")}

	months := p.Months()

	require.Len(t, months, 4)
	assert.Equal(t, "2024-11-01", months[0].String())
	assert.Equal(t, "2025-02-01", months[3].String())
}

func TestTrailingWeeks(t *testing.T) {
	p := calendar.TrailingWeeks(calendar.MustParseDate("2024-03-06"), 3)

	assert.Equal(t, "2024-02-19", p.Start.String())
	assert.Equal(t, "2024-03-06", p.End.String())
}
