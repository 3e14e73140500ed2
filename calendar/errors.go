/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine itself reports business outcomes as data (eligibility reasons,
  zero balances), so errors here cover only contract violations at the
  boundaries: malformed dates and ranges, invalid rules, invalid provider
  payloads, and missing users in the store.

USAGE:
  if errors.Is(err, calendar.ErrInvalidPeriod) {
      // 400 Bad Request
  }

SEE ALSO:
  - harvest/adapter.go: Returns EntryError for invalid provider entries
  - api/handlers.go: Maps these errors to HTTP statuses
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a string is not a YYYY-MM-DD date or week key.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidRules is returned when engine configuration is unusable.
	ErrInvalidRules = errors.New("invalid rules")

	// ErrInvalidEntry is returned when a provider time entry fails validation.
	ErrInvalidEntry = errors.New("invalid time entry")

	// ErrUserNotFound is returned when no entries exist for a user.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoEntrySource is returned when a sync is requested without a provider.
	ErrNoEntrySource = errors.New("no time entry source configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PeriodError describes a rejected period.
type PeriodError struct {
	Start Date
	End   Date
}

func (e *PeriodError) Error() string {
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Sprintf("invalid period: missing bound in [%s, %s]", e.Start, e.End)
	}
	return fmt.Sprintf("invalid period: %s is before %s", e.End, e.Start)
}

func (e *PeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// EntryError points at the offending entry in a provider payload.
type EntryError struct {
	Index  int   // position in the payload
	ID     int64 // provider ID, 0 if unknown
	Field  string
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("time entry %d (id %d): %s: %s", e.Index, e.ID, e.Field, e.Reason)
}

func (e *EntryError) Unwrap() error {
	return ErrInvalidEntry
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidEntry)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
