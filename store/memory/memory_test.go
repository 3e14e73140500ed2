package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/store"
	"github.com/warp/timebank/store/memory"
	"github.com/warp/timebank/timeaccount"
)

func testEntry(id int64, date, hours string) timeaccount.TimeEntry {
	return timeaccount.TimeEntry{
		ID:        id,
		SpentDate: calendar.MustParseDate(date),
		Hours:     decimal.RequireFromString(hours),
		Project:   timeaccount.NamedRef{Name: "Webshop"},
		Task:      timeaccount.NamedRef{Name: "Development"},
	}
}

var march = calendar.Period{
	Start: calendar.MustParseDate("2024-03-01"),
	End:   calendar.MustParseDate("2024-03-31"),
}

func TestMemory_EntriesSortedAndUpserted(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.SaveEntries(ctx, "u1", []timeaccount.TimeEntry{
		testEntry(3, "2024-03-05", "2"),
		testEntry(1, "2024-03-05", "3"),
		testEntry(2, "2024-03-04", "4"),
		testEntry(9, "2024-04-01", "8"),
	}))
	require.NoError(t, m.SaveEntries(ctx, "u1", []timeaccount.TimeEntry{
		testEntry(2, "2024-03-06", "5"),
	}))

	got, err := m.LoadEntries(ctx, "u1", march)
	require.NoError(t, err)

	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []int64{1, 3, 2}, ids, "date then ID, moved entry re-sorted")
	assert.Equal(t, "5", got[2].Hours.String())
}

func TestMemory_UnknownUser(t *testing.T) {
	m := memory.New()

	_, err := m.LoadEntries(context.Background(), "ghost", march)
	assert.ErrorIs(t, err, calendar.ErrUserNotFound)
}

func TestMemory_Verdicts(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	at := time.Date(2024, time.March, 8, 16, 0, 0, 0, time.UTC)

	require.NoError(t, m.SaveVerdict(ctx, store.Verdict{UserID: "b", WeekKey: "2024-W10", Eligible: true, Reason: timeaccount.ReasonNone, EvaluatedAt: at}))
	require.NoError(t, m.SaveVerdict(ctx, store.Verdict{UserID: "a", WeekKey: "2024-W10", Reason: timeaccount.ReasonMissingHours, EvaluatedAt: at}))

	first, err := m.ListVerdicts(ctx, "2024-W10")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].UserID)

	require.NoError(t, m.SaveVerdict(ctx, store.Verdict{UserID: "a", WeekKey: "2024-W10", Eligible: true, Reason: timeaccount.ReasonNone, EvaluatedAt: at}))

	again, err := m.ListVerdicts(ctx, "2024-W10")
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, first[0].ID, again[0].ID)

	eligible, err := m.EligibleUsers(ctx, "2024-W10")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, eligible)

	users, err := m.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, users, "verdicts register users")
}

func TestMemory_ReplaceEntriesDropsDeletedInWindow(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	week := calendar.ISOWeekOf(calendar.MustParseDate("2024-03-04"))

	// GIVEN two entries in the week and one outside it
	require.NoError(t, m.SaveEntries(ctx, "u1", []timeaccount.TimeEntry{
		testEntry(1, "2024-03-04", "8"),
		testEntry(2, "2024-03-05", "4"),
		testEntry(3, "2024-03-20", "6"),
	}))

	// WHEN the week is re-synced without entry 2
	require.NoError(t, m.ReplaceEntries(ctx, "u1", week, []timeaccount.TimeEntry{
		testEntry(1, "2024-03-04", "7.5"),
	}))

	// THEN entry 2 is gone, entry 1 is updated, entry 3 is untouched
	got, err := m.LoadEntries(ctx, "u1", march)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "7.5", got[0].Hours.String())
	assert.Equal(t, int64(3), got[1].ID)
}

func TestMemory_ReplaceEntriesRegistersUser(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	require.NoError(t, m.ReplaceEntries(ctx, "u1", march, nil))

	got, err := m.LoadEntries(ctx, "u1", march)
	require.NoError(t, err)
	assert.Empty(t, got)

	p := calendar.Period{Start: march.End, End: march.Start}
	assert.ErrorIs(t, m.ReplaceEntries(ctx, "u1", p, nil), calendar.ErrInvalidPeriod)
}
