/*
handlers.go - HTTP API handlers for the time accounting engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to timeaccount for every computation.
  Handlers hold no state beyond their dependencies.

ENDPOINTS:
  Entries:
    POST   /api/users/{id}/entries      Import a provider payload
    POST   /api/users/{id}/sync         Pull entries from the provider

  Ledgers:
    GET    /api/users/{id}/balance      Flex balance (from, to)
    GET    /api/users/{id}/fagtimer     Continuing education budget (from, to)
    GET    /api/users/{id}/pattern      Work pattern and possible overtime (from, to)

  Eligibility:
    GET    /api/users/{id}/eligibility  Weekly verdict (friday)
    GET    /api/weeks/{week}/verdicts   Recorded verdicts (eligible)

  from/to default to year-to-date in the engine's time zone.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid date, period or provider entry
  - 404: Unknown user
  - 503: Sync requested without a configured provider
  - 500: Internal errors
  Eligibility failures are not errors: they come back as 200 with a reason.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background sync using the same Sync method
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/harvest"
	"github.com/warp/timebank/store"
	"github.com/warp/timebank/timeaccount"
)

// maxPayloadBytes bounds an imported provider payload.
const maxPayloadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EntrySource fetches normalized entries for a user from a time-tracking
// provider. harvest.Client implements it.
type EntrySource interface {
	TimeEntries(ctx context.Context, userID string, p calendar.Period) ([]timeaccount.TimeEntry, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  store.Store
	Engine *timeaccount.Engine
	Source EntrySource // nil disables sync

	// Now is the clock used for default ranges and verdict timestamps.
	Now func() time.Time
}

// NewHandler creates a new handler. source may be nil.
func NewHandler(st store.Store, engine *timeaccount.Engine, source EntrySource) *Handler {
	return &Handler{
		Store:  st,
		Engine: engine,
		Source: source,
		Now:    time.Now,
	}
}

func (h *Handler) today() calendar.Date {
	return calendar.DateOf(h.Now().In(h.Engine.Rules().Location))
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ImportEntries stores a provider payload for a user.
// POST /api/users/{id}/entries
func (h *Handler) ImportEntries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Failed to read payload", err)
		return
	}

	entries, err := harvest.Decode(body)
	if err != nil {
		writeDomainError(w, "Invalid payload", err)
		return
	}

	if err := h.Store.SaveEntries(r.Context(), userID, entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entries", err)
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{UserID: userID, Entries: len(entries)})
}

// SyncUser pulls entries from the provider and stores them.
// POST /api/users/{id}/sync?from=&to=
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	p, err := h.periodFromQuery(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}

	n, err := h.Sync(r.Context(), userID, p)
	if errors.Is(err, calendar.ErrNoEntrySource) {
		writeError(w, http.StatusServiceUnavailable, "Sync is not configured", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Sync failed", err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		UserID:  userID,
		From:    p.Start.String(),
		To:      p.End.String(),
		Entries: n,
	})
}

// Sync fetches the user's entries for p from the provider and makes them
// the stored set for p, so entries deleted upstream disappear.
// It returns the number of entries stored.
func (h *Handler) Sync(ctx context.Context, userID string, p calendar.Period) (int, error) {
	if h.Source == nil {
		return 0, calendar.ErrNoEntrySource
	}
	entries, err := h.Source.TimeEntries(ctx, userID, p)
	if err != nil {
		return 0, fmt.Errorf("fetch entries for %s: %w", userID, err)
	}
	if err := h.Store.ReplaceEntries(ctx, userID, p, entries); err != nil {
		return 0, fmt.Errorf("save entries for %s: %w", userID, err)
	}
	return len(entries), nil
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetBalance returns the flex balance for a date range.
// GET /api/users/{id}/balance?from=&to=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, p, entries, ok := h.loadRange(w, r)
	if !ok {
		return
	}

	balance, err := h.Engine.CalculateTimeBalance(entries, p)
	if err != nil {
		writeDomainError(w, "Failed to calculate balance", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeBalanceDTO(userID, balance))
}

// GetFagtimer returns continuing education budget usage.
// GET /api/users/{id}/fagtimer?from=&to=
func (h *Handler) GetFagtimer(w http.ResponseWriter, r *http.Request) {
	userID, p, entries, ok := h.loadRange(w, r)
	if !ok {
		return
	}

	budget, err := h.Engine.CalculateFagtimerBalance(entries, p)
	if err != nil {
		writeDomainError(w, "Failed to calculate fagtimer", err)
		return
	}

	writeJSON(w, http.StatusOK, toFagtimerBalanceDTO(userID, budget))
}

// GetPattern detects the user's work pattern over the range and reports
// possible overtime for the week containing the end of the range.
// GET /api/users/{id}/pattern?from=&to=
func (h *Handler) GetPattern(w http.ResponseWriter, r *http.Request) {
	userID, p, entries, ok := h.loadRange(w, r)
	if !ok {
		return
	}

	pattern := h.Engine.DetectPattern(entries)
	lastWeek := calendar.ISOWeekOf(p.End)
	billable := timeaccount.BillableHours(entries, lastWeek)

	writeJSON(w, http.StatusOK, PatternDTO{
		UserID:           userID,
		From:             p.Start.String(),
		To:               p.End.String(),
		DailyTarget:      hours(pattern.DailyTarget),
		WeeklyTarget:     hours(pattern.WeeklyTarget),
		FullDays:         pattern.FullDays,
		AverageFullDay:   hours(pattern.AverageFullDay),
		WeekKey:          p.End.WeekKey(),
		BillableHours:    hours(billable),
		PossibleOvertime: hours(timeaccount.PossibleOvertime(pattern, billable)),
	})
}

// loadRange resolves the user and date range shared by ledger endpoints.
// It writes the error response itself and reports ok=false on failure.
func (h *Handler) loadRange(w http.ResponseWriter, r *http.Request) (string, calendar.Period, []timeaccount.TimeEntry, bool) {
	userID := chi.URLParam(r, "id")

	p, err := h.periodFromQuery(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return "", calendar.Period{}, nil, false
	}

	entries, err := h.Store.LoadEntries(r.Context(), userID, p)
	if err != nil {
		writeDomainError(w, "Failed to load entries", err)
		return "", calendar.Period{}, nil, false
	}
	return userID, p, entries, true
}

func (h *Handler) periodFromQuery(r *http.Request) (calendar.Period, error) {
	p := calendar.YearToDate(h.today())
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("from: %w", err)
		}
		p.Start = d
	}
	if s := q.Get("to"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("to: %w", err)
		}
		p.End = d
	}
	return p, p.Validate()
}

// =============================================================================
// ELIGIBILITY HANDLERS
// =============================================================================

// GetEligibility evaluates the week ending on the given Friday and records
// the verdict. Structural failures (bad or non-Friday date) are returned
// but not recorded.
// GET /api/users/{id}/eligibility?friday=YYYY-MM-DD
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	friday := r.URL.Query().Get("friday")

	var entries []timeaccount.TimeEntry
	if d, err := calendar.ParseDate(friday); err == nil {
		entries, err = h.Store.LoadEntries(r.Context(), userID, calendar.ISOWeekOf(d))
		if err != nil {
			writeDomainError(w, "Failed to load entries", err)
			return
		}
	}

	result := h.Engine.CheckEligibility(entries, friday)

	if !result.Reason.IsStructural() {
		verdict := store.NewVerdict(userID, result, h.Now())
		if err := h.Store.SaveVerdict(r.Context(), verdict); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record verdict", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toEligibilityDTO(userID, result))
}

// ListWeekVerdicts returns recorded verdicts for an ISO week.
// GET /api/weeks/{week}/verdicts?eligible=true
func (h *Handler) ListWeekVerdicts(w http.ResponseWriter, r *http.Request) {
	week := chi.URLParam(r, "week")
	if _, err := calendar.ParseWeekKey(week); err != nil {
		writeDomainError(w, "Invalid week key", err)
		return
	}

	verdicts, err := h.Store.ListVerdicts(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list verdicts", err)
		return
	}

	var eligible map[string]bool
	if r.URL.Query().Get("eligible") == "true" {
		users, err := h.Store.EligibleUsers(r.Context(), week)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list eligible users", err)
			return
		}
		eligible = make(map[string]bool, len(users))
		for _, u := range users {
			eligible[u] = true
		}
	}

	dtos := []VerdictDTO{}
	for _, v := range verdicts {
		if eligible != nil && !eligible[v.UserID] {
			continue
		}
		dtos = append(dtos, toVerdictDTO(v))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps calendar errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var entryErr *calendar.EntryError
	switch {
	case errors.As(err, &entryErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: message,
			Code:  "invalid_entry",
			Details: map[string]any{
				"index":  entryErr.Index,
				"id":     entryErr.ID,
				"field":  entryErr.Field,
				"reason": entryErr.Reason,
			},
		})
	case calendar.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case calendar.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request", Details: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
