package harvest_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/harvest"
)

const listingPage = `{
  "time_entries": [
    {
      "id": 636709355,
      "spent_date": "2024-03-04",
      "hours": 7.5,
      "project": {"id": 14307913, "name": "Webshop"},
      "client": {"id": 5735776, "name": "Acme AS"},
      "task": {"id": 8083365, "name": "Development"},
      "created_at": "2024-03-04T16:10:02Z",
      "updated_at": "2024-03-05T08:00:00+01:00"
    },
    {
      "id": 636708723,
      "spent_date": "2024-03-05",
      "hours": "2.25",
      "project": {"id": 1, "name": "Absence"},
      "client": null,
      "task": {"id": 2, "name": "Ferie"},
      "created_at": "2024-03-05T09:00:00Z",
      "updated_at": "2024-03-05T09:00:00Z"
    }
  ],
  "per_page": 2000,
  "total_pages": 1,
  "total_entries": 2,
  "next_page": null,
  "page": 1,
  "links": {"next": null}
}`

func TestDecode_ListingPage(t *testing.T) {
	entries, err := harvest.Decode([]byte(listingPage))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, int64(636709355), first.ID)
	assert.Equal(t, calendar.MustParseDate("2024-03-04"), first.SpentDate)
	assert.True(t, decimal.RequireFromString("7.5").Equal(first.Hours))
	assert.Equal(t, "Webshop", first.Project.Name)
	require.NotNil(t, first.Client)
	assert.Equal(t, "Acme AS", first.Client.Name)
	assert.Equal(t, "Development", first.Task.Name)
	assert.True(t, first.UpdatedAt.Equal(time.Date(2024, time.March, 5, 7, 0, 0, 0, time.UTC)))

	second := entries[1]
	assert.Nil(t, second.Client)
	assert.True(t, decimal.RequireFromString("2.25").Equal(second.Hours))
}

func TestDecode_BareArrayAndMissingFields(t *testing.T) {
	entries, err := harvest.Decode([]byte(`[{"id": 1, "spent_date": "2024-03-04"}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.True(t, entries[0].Hours.IsZero())
	assert.Empty(t, entries[0].Project.Name)
	assert.Nil(t, entries[0].Client)
	assert.True(t, entries[0].CreatedAt.IsZero())
}

func TestDecode_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"bad date", `[{"id": 7, "spent_date": "04.03.2024", "hours": 1}]`, "spent_date"},
		{"missing date", `[{"id": 7, "hours": 1}]`, "spent_date"},
		{"negative hours", `[{"id": 7, "spent_date": "2024-03-04", "hours": -1}]`, "hours"},
		{"text hours", `[{"id": 7, "spent_date": "2024-03-04", "hours": "lots"}]`, "hours"},
		{"bad timestamp", `[{"id": 7, "spent_date": "2024-03-04", "hours": 1, "updated_at": "yesterday"}]`, "updated_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := harvest.Decode([]byte(tt.payload))

			var entryErr *calendar.EntryError
			require.ErrorAs(t, err, &entryErr)
			assert.Equal(t, tt.field, entryErr.Field)
			assert.Equal(t, int64(7), entryErr.ID)
			assert.Equal(t, 0, entryErr.Index)
			assert.ErrorIs(t, err, calendar.ErrInvalidEntry)
		})
	}
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := harvest.Decode([]byte(`{"time_entries": [`))
	assert.ErrorIs(t, err, calendar.ErrInvalidEntry)

	_, err = harvest.Decode([]byte("  "))
	assert.ErrorIs(t, err, calendar.ErrInvalidEntry)
}
