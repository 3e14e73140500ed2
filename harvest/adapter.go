/*
Package harvest is the boundary between the time-tracking provider and the engine.

PURPOSE:
  The provider's JSON is loosely typed: hours arrive as numbers or strings,
  clients may be null, timestamps may be missing. This package is the only
  place that sees that payload. Decode validates it once and returns
  well-typed timeaccount.TimeEntry values; nothing downstream handles raw
  provider data.

VALIDATION:
  Rejected (EntryError with the entry index):
    - spent_date missing or not YYYY-MM-DD
    - hours not numeric, or negative
    - created_at/updated_at present but not RFC 3339
  Accepted permissively:
    - missing project/client/task names (classification simply won't match)
    - missing hours (treated as 0) and missing timestamps (zero time)

SEE ALSO:
  - client.go: Authenticated paging client for the provider API
*/
package harvest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
)

// =============================================================================
// RAW PAYLOAD
// =============================================================================

// RawRef is a provider object reference.
type RawRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RawTimeEntry is a provider time entry exactly as received.
type RawTimeEntry struct {
	ID        int64           `json:"id"`
	SpentDate string          `json:"spent_date"`
	Hours     json.RawMessage `json:"hours"`
	Project   *RawRef         `json:"project"`
	Client    *RawRef         `json:"client"`
	Task      *RawRef         `json:"task"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// Page is one page of the provider's time entry listing.
type Page struct {
	TimeEntries  []RawTimeEntry `json:"time_entries"`
	PerPage      int            `json:"per_page"`
	TotalPages   int            `json:"total_pages"`
	TotalEntries int            `json:"total_entries"`
	Page         int            `json:"page"`
	NextPage     *int           `json:"next_page"`
	Links        struct {
		Next string `json:"next"`
	} `json:"links"`
}

// =============================================================================
// ADAPTER
// =============================================================================

// Decode accepts either a listing page or a bare JSON array of entries.
func Decode(data []byte) ([]timeaccount.TimeEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", calendar.ErrInvalidEntry)
	}

	var raw []RawTimeEntry
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", calendar.ErrInvalidEntry, err)
		}
	} else {
		var page Page
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("%w: %v", calendar.ErrInvalidEntry, err)
		}
		raw = page.TimeEntries
	}
	return ToTimeEntries(raw)
}

// ToTimeEntries validates raw entries, failing on the first invalid one.
func ToTimeEntries(raw []RawTimeEntry) ([]timeaccount.TimeEntry, error) {
	entries := make([]timeaccount.TimeEntry, 0, len(raw))
	for i, r := range raw {
		entry, err := toTimeEntry(i, r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toTimeEntry(index int, r RawTimeEntry) (timeaccount.TimeEntry, error) {
	fail := func(field, reason string) error {
		return &calendar.EntryError{Index: index, ID: r.ID, Field: field, Reason: reason}
	}

	spent, err := calendar.ParseDate(strings.TrimSpace(r.SpentDate))
	if err != nil {
		return timeaccount.TimeEntry{}, fail("spent_date", fmt.Sprintf("%q is not a YYYY-MM-DD date", r.SpentDate))
	}

	hours, err := parseHours(r.Hours)
	if err != nil {
		return timeaccount.TimeEntry{}, fail("hours", err.Error())
	}

	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return timeaccount.TimeEntry{}, fail("created_at", err.Error())
	}
	updated, err := parseTimestamp(r.UpdatedAt)
	if err != nil {
		return timeaccount.TimeEntry{}, fail("updated_at", err.Error())
	}

	entry := timeaccount.TimeEntry{
		ID:        r.ID,
		SpentDate: spent,
		Hours:     hours,
		Project:   toRef(r.Project),
		Task:      toRef(r.Task),
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if r.Client != nil {
		client := toRef(r.Client)
		entry.Client = &client
	}
	return entry, nil
}

func toRef(r *RawRef) timeaccount.NamedRef {
	if r == nil {
		return timeaccount.NamedRef{}
	}
	return timeaccount.NamedRef{ID: r.ID, Name: r.Name}
}

func parseHours(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	s = strings.Trim(s, `"`)
	hours, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not numeric", string(raw))
	}
	if hours.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s is negative", hours)
	}
	return hours, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an RFC 3339 timestamp", s)
	}
	return t, nil
}
