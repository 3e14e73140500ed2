// Package memory provides an in-memory store.Store.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/store"
	"github.com/warp/timebank/timeaccount"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  map[string][]timeaccount.TimeEntry // sorted by date, then ID
	verdicts map[verdictKey]store.Verdict
}

type verdictKey struct {
	UserID  string
	WeekKey string
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		entries:  make(map[string][]timeaccount.TimeEntry),
		verdicts: make(map[verdictKey]store.Verdict),
	}
}

// SaveEntries upserts entries by ID.
func (m *Memory) SaveEntries(_ context.Context, userID string, entries []timeaccount.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.entries[userID]
	if !ok {
		existing = []timeaccount.TimeEntry{}
	}
	for _, e := range entries {
		existing = m.upsertLocked(existing, e)
	}
	m.entries[userID] = existing
	return nil
}

// ReplaceEntries drops the user's entries dated in p, then upserts entries.
func (m *Memory) ReplaceEntries(_ context.Context, userID string, p calendar.Period, entries []timeaccount.TimeEntry) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := slices.DeleteFunc(slices.Clone(m.entries[userID]), func(e timeaccount.TimeEntry) bool {
		return p.Contains(e.SpentDate)
	})
	for _, e := range entries {
		kept = m.upsertLocked(kept, e)
	}
	m.entries[userID] = kept
	return nil
}

func (m *Memory) upsertLocked(list []timeaccount.TimeEntry, e timeaccount.TimeEntry) []timeaccount.TimeEntry {
	if i := slices.IndexFunc(list, func(x timeaccount.TimeEntry) bool { return x.ID == e.ID }); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}

	// Binary search for insertion point
	i := sort.Search(len(list), func(i int) bool {
		c := list[i].SpentDate.Compare(e.SpentDate)
		return c > 0 || (c == 0 && list[i].ID > e.ID)
	})
	return slices.Insert(list, i, e)
}

func (m *Memory) LoadEntries(_ context.Context, userID string, p calendar.Period) ([]timeaccount.TimeEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.entries[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", calendar.ErrUserNotFound, userID)
	}
	result := []timeaccount.TimeEntry{}
	for _, e := range list {
		if p.Contains(e.SpentDate) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.entries))
	for id := range m.entries {
		users = append(users, id)
	}
	slices.Sort(users)
	return users, nil
}

// SaveVerdict replaces any verdict for the same user and week, keeping its ID.
func (m *Memory) SaveVerdict(_ context.Context, v store.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := verdictKey{UserID: v.UserID, WeekKey: v.WeekKey}
	if prev, ok := m.verdicts[k]; ok {
		v.ID = prev.ID
	} else if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.verdicts[k] = v

	if _, ok := m.entries[v.UserID]; !ok {
		m.entries[v.UserID] = []timeaccount.TimeEntry{}
	}
	return nil
}

func (m *Memory) ListVerdicts(_ context.Context, weekKey string) ([]store.Verdict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []store.Verdict{}
	for k, v := range m.verdicts {
		if k.WeekKey == weekKey {
			result = append(result, v)
		}
	}
	slices.SortFunc(result, func(a, b store.Verdict) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return result, nil
}

func (m *Memory) EligibleUsers(ctx context.Context, weekKey string) ([]string, error) {
	verdicts, err := m.ListVerdicts(ctx, weekKey)
	if err != nil {
		return nil, err
	}
	users := []string{}
	for _, v := range verdicts {
		if v.Eligible {
			users = append(users, v.UserID)
		}
	}
	return users, nil
}
