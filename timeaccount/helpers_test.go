package timeaccount_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Week 10 of 2024: Monday March 4 - Friday March 8.
var (
	mon = calendar.MustParseDate("2024-03-04")
	tue = calendar.MustParseDate("2024-03-05")
	wed = calendar.MustParseDate("2024-03-06")
	thu = calendar.MustParseDate("2024-03-07")
	fri = calendar.MustParseDate("2024-03-08")

	wednesdayNoon = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
)

func newTestEngine(t *testing.T) *timeaccount.Engine {
	t.Helper()
	rules := timeaccount.DefaultRules()
	rules.Location = time.UTC
	engine, err := timeaccount.NewEngine(rules)
	require.NoError(t, err)
	return engine
}

func h(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var nextID int64

// work is a billable client entry.
func work(d calendar.Date, hours string) timeaccount.TimeEntry {
	return entry(d, hours, "Webshop", &timeaccount.NamedRef{Name: "Acme AS"}, "Development")
}

// internal is a non-billable entry without a client.
func internal(d calendar.Date, hours, project, task string) timeaccount.TimeEntry {
	return entry(d, hours, project, nil, task)
}

func entry(d calendar.Date, hours, project string, client *timeaccount.NamedRef, task string) timeaccount.TimeEntry {
	nextID++
	return timeaccount.TimeEntry{
		ID:        nextID,
		SpentDate: d,
		Hours:     h(hours),
		Project:   timeaccount.NamedRef{Name: project},
		Client:    client,
		Task:      timeaccount.NamedRef{Name: task},
		CreatedAt: wednesdayNoon,
		UpdatedAt: wednesdayNoon,
	}
}

func fullWeek(hours string) []timeaccount.TimeEntry {
	return []timeaccount.TimeEntry{
		work(mon, hours), work(tue, hours), work(wed, hours), work(thu, hours), work(fri, hours),
	}
}

func period(t *testing.T, from, to string) calendar.Period {
	t.Helper()
	p, err := calendar.ParsePeriod(from, to)
	require.NoError(t, err)
	return p
}
