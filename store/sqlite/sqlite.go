/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Keeps synced time entries and eligibility verdicts between restarts so
  the API can answer balance and eligibility queries without calling the
  provider on every request.

KEY TABLES:
  users:        Every user ID a sync or import has registered
  time_entries: Normalized entries, keyed by (user_id, id)
  verdicts:     One eligibility verdict per (user_id, week_key)

ENCODING:
  Dates are stored as YYYY-MM-DD so lexical order is calendar order.
  Hours are stored as decimal strings and read back exactly.
  Timestamps are RFC3339Nano in UTC; an unknown timestamp is ''.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of WAL mode.

USAGE:
  st, err := sqlite.New("./data/timebank.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/store"
	"github.com/warp/timebank/timeaccount"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		user_id TEXT NOT NULL REFERENCES users(id),
		id INTEGER NOT NULL,
		spent_date TEXT NOT NULL,
		hours TEXT NOT NULL,
		project_id INTEGER NOT NULL,
		project_name TEXT NOT NULL,
		client_id INTEGER,
		client_name TEXT,
		task_id INTEGER NOT NULL,
		task_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	-- Range loads by user (hot path)
	CREATE INDEX IF NOT EXISTS idx_time_entries_user_date
		ON time_entries(user_id, spent_date, id);

	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		week_key TEXT NOT NULL,
		eligible BOOLEAN NOT NULL,
		reason TEXT NOT NULL,
		missing_days_json TEXT NOT NULL DEFAULT '[]',
		evaluated_at TEXT NOT NULL,
		UNIQUE(user_id, week_key)
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_week
		ON verdicts(week_key, eligible);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveEntries upserts entries for a user in a single transaction.
func (s *Store) SaveEntries(ctx context.Context, userID string, entries []timeaccount.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := registerUser(ctx, tx, userID); err != nil {
		return err
	}
	for _, e := range entries {
		if err := upsertEntry(ctx, tx, userID, e); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceEntries deletes the user's entries dated in p and writes entries,
// all in one transaction.
func (s *Store) ReplaceEntries(ctx context.Context, userID string, p calendar.Period, entries []timeaccount.TimeEntry) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := registerUser(ctx, tx, userID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"DELETE FROM time_entries WHERE user_id = ? AND spent_date >= ? AND spent_date <= ?",
		userID, p.Start.String(), p.End.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to clear entries for %s: %w", userID, err)
	}
	for _, e := range entries {
		if err := upsertEntry(ctx, tx, userID, e); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func registerUser(ctx context.Context, db execer, userID string) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING",
		userID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to register user %s: %w", userID, err)
	}
	return nil
}

func upsertEntry(ctx context.Context, db execer, userID string, e timeaccount.TimeEntry) error {
	query := `
		INSERT INTO time_entries (user_id, id, spent_date, hours, project_id, project_name,
			client_id, client_name, task_id, task_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			spent_date = excluded.spent_date,
			hours = excluded.hours,
			project_id = excluded.project_id,
			project_name = excluded.project_name,
			client_id = excluded.client_id,
			client_name = excluded.client_name,
			task_id = excluded.task_id,
			task_name = excluded.task_name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	var clientID sql.NullInt64
	var clientName sql.NullString
	if e.Client != nil {
		clientID = sql.NullInt64{Int64: e.Client.ID, Valid: true}
		clientName = sql.NullString{String: e.Client.Name, Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		userID, e.ID, e.SpentDate.String(), e.Hours.String(),
		e.Project.ID, e.Project.Name,
		clientID, clientName,
		e.Task.ID, e.Task.Name,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save entry %d: %w", e.ID, err)
	}
	return nil
}

// LoadEntries returns the user's entries dated within p.
func (s *Store) LoadEntries(ctx context.Context, userID string, p calendar.Period) ([]timeaccount.TimeEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if ok, err := s.userExists(ctx, userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", calendar.ErrUserNotFound, userID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spent_date, hours, project_id, project_name, client_id, client_name,
		       task_id, task_name, created_at, updated_at
		FROM time_entries
		WHERE user_id = ? AND spent_date >= ? AND spent_date <= ?
		ORDER BY spent_date ASC, id ASC
	`, userID, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []timeaccount.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (timeaccount.TimeEntry, error) {
	var e timeaccount.TimeEntry
	var spentDate, hours, createdAt, updatedAt string
	var clientID sql.NullInt64
	var clientName sql.NullString

	err := rows.Scan(
		&e.ID, &spentDate, &hours,
		&e.Project.ID, &e.Project.Name,
		&clientID, &clientName,
		&e.Task.ID, &e.Task.Name,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	if e.SpentDate, err = calendar.ParseDate(spentDate); err != nil {
		return e, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	if e.Hours, err = decimal.NewFromString(hours); err != nil {
		return e, fmt.Errorf("entry %d: bad hours %q: %w", e.ID, hours, err)
	}
	if clientID.Valid {
		e.Client = &timeaccount.NamedRef{ID: clientID.Int64, Name: clientName.String}
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, fmt.Errorf("entry %d: bad created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return e, fmt.Errorf("entry %d: bad updated_at: %w", e.ID, err)
	}
	return e, nil
}

// ListUsers returns all registered user IDs.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStrings(ctx, "SELECT id FROM users ORDER BY id")
}

func (s *Store) userExists(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ?", userID,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// VERDICT STORE
// =============================================================================

// SaveVerdict records v, replacing any earlier verdict for the same user and
// week. The existing row ID is kept on replace.
func (s *Store) SaveVerdict(ctx context.Context, v store.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	missingJSON, err := json.Marshal(v.MissingDays)
	if err != nil {
		return fmt.Errorf("failed to encode missing days: %w", err)
	}
	if v.MissingDays == nil {
		missingJSON = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := registerUser(ctx, tx, v.UserID); err != nil {
		return err
	}

	query := `
		INSERT INTO verdicts (id, user_id, week_key, eligible, reason, missing_days_json, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_key) DO UPDATE SET
			eligible = excluded.eligible,
			reason = excluded.reason,
			missing_days_json = excluded.missing_days_json,
			evaluated_at = excluded.evaluated_at
	`
	_, err = tx.ExecContext(ctx, query,
		v.ID.String(), v.UserID, v.WeekKey, v.Eligible, string(v.Reason),
		string(missingJSON), formatTime(v.EvaluatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return tx.Commit()
}

// ListVerdicts returns all verdicts for a week, ordered by user.
func (s *Store) ListVerdicts(ctx context.Context, weekKey string) ([]store.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, week_key, eligible, reason, missing_days_json, evaluated_at
		FROM verdicts
		WHERE week_key = ?
		ORDER BY user_id
	`, weekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []store.Verdict{}
	for rows.Next() {
		var v store.Verdict
		var id, reason, missingJSON, evaluatedAt string
		if err := rows.Scan(&id, &v.UserID, &v.WeekKey, &v.Eligible, &reason, &missingJSON, &evaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if v.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("verdict for %s %s: bad id: %w", v.UserID, v.WeekKey, err)
		}
		v.Reason = timeaccount.ReasonKey(reason)
		if v.EvaluatedAt, err = parseTime(evaluatedAt); err != nil {
			return nil, fmt.Errorf("verdict %s: bad evaluated_at: %w", id, err)
		}
		if err := json.Unmarshal([]byte(missingJSON), &v.MissingDays); err != nil {
			return nil, fmt.Errorf("verdict %s: bad missing days: %w", id, err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// EligibleUsers returns the users with an eligible verdict for the week.
func (s *Store) EligibleUsers(ctx context.Context, weekKey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStrings(ctx,
		"SELECT user_id FROM verdicts WHERE week_key = ? AND eligible = 1 ORDER BY user_id",
		weekKey,
	)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"verdicts", "time_entries", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
