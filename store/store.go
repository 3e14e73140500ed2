/*
store.go - Persistence interfaces for synced entries and eligibility verdicts

PURPOSE:
  Defines the boundary between the HTTP layer and the database. The
  engine itself is pure; the store only keeps the normalized entries a
  provider sync produced and the verdicts computed from them.

KEY INTERFACES:
  EntryStore:   Upsert and range-load of normalized time entries per user
  VerdictStore: One eligibility verdict per user and ISO week
  Store:        Both of the above

IDEMPOTENCY:
  SaveEntries upserts by provider entry ID, so re-syncing the same window
  never duplicates hours. SaveVerdict upserts by (user, week), so the most
  recent evaluation wins.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - timeaccount/types.go: TimeEntry and EligibilityResult
  - api/handlers.go: The consumer
*/
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
)

// EntryStore persists normalized time entries.
type EntryStore interface {
	// SaveEntries upserts entries by ID and registers the user, even when
	// entries is empty.
	SaveEntries(ctx context.Context, userID string, entries []timeaccount.TimeEntry) error

	// ReplaceEntries makes entries the user's complete set for p: stored
	// entries dated in p are dropped before entries are written. Entries
	// outside p are kept. Used by provider syncs so upstream deletions stick.
	ReplaceEntries(ctx context.Context, userID string, p calendar.Period, entries []timeaccount.TimeEntry) error

	// LoadEntries returns the user's entries with SpentDate in p, ordered by
	// date then ID. Unknown users yield calendar.ErrUserNotFound.
	LoadEntries(ctx context.Context, userID string, p calendar.Period) ([]timeaccount.TimeEntry, error)

	// ListUsers returns every registered user ID in ascending order.
	ListUsers(ctx context.Context) ([]string, error)
}

// VerdictStore persists weekly eligibility verdicts.
type VerdictStore interface {
	SaveVerdict(ctx context.Context, v Verdict) error
	ListVerdicts(ctx context.Context, weekKey string) ([]Verdict, error)
	EligibleUsers(ctx context.Context, weekKey string) ([]string, error)
}

// Store is everything the API needs.
type Store interface {
	EntryStore
	VerdictStore
}

// Verdict is a recorded eligibility decision for one user and week.
type Verdict struct {
	ID          uuid.UUID
	UserID      string
	WeekKey     string
	Eligible    bool
	Reason      timeaccount.ReasonKey
	MissingDays []calendar.Date
	EvaluatedAt time.Time
}

// NewVerdict captures result as a verdict for userID.
func NewVerdict(userID string, result timeaccount.EligibilityResult, at time.Time) Verdict {
	return Verdict{
		ID:          uuid.New(),
		UserID:      userID,
		WeekKey:     result.WeekKey,
		Eligible:    result.IsEligible,
		Reason:      result.Reason,
		MissingDays: append([]calendar.Date(nil), result.ReasonData.MissingDays...),
		EvaluatedAt: at.UTC(),
	}
}
