/*
scheduler.go - Automated provider sync

PURPOSE:
  Periodically pulls recent time entries for every known user from the
  configured provider so balance and eligibility queries see fresh data.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Syncs a rolling window: the last Weeks ISO weeks through today
  - Users come from configuration, or from the store when none are configured
  - One failing user is logged and skipped; the run continues

CONFIGURATION:
  - Interval: How often to sync (default: 1 hour)
  - Weeks:    Rolling window size (default: 8)
  - Enabled:  Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSyncScheduler(handler, cfg.Harvest.Users)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SyncUser endpoint (manual sync) and Handler.Sync
  - harvest/client.go: The EntrySource used in production
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/timebank/calendar"
)

// SyncScheduler handles automated provider syncs.
type SyncScheduler struct {
	Handler  *Handler
	Users    []string
	Interval time.Duration
	Weeks    int
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SyncSummary counts the outcome of one sync run.
type SyncSummary struct {
	Users   int
	Entries int
	Failed  int
}

// NewSyncScheduler creates a new scheduler.
func NewSyncScheduler(handler *Handler, users []string) *SyncScheduler {
	return &SyncScheduler{
		Handler:  handler,
		Users:    users,
		Interval: 1 * time.Hour,
		Weeks:    8,
		Enabled:  handler.Source != nil,
	}
}

// Start begins the scheduler.
func (ss *SyncScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Sync] Disabled, not starting")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.Interval)
	ss.stop = make(chan struct{})
	ss.wg.Add(1)

	go ss.run(ss.ticker, ss.stop)

	log.Printf("[Sync] Started with interval %v over %d weeks", ss.Interval, ss.Weeks)
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (ss *SyncScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker == nil {
		return
	}
	ss.ticker.Stop()
	close(ss.stop)
	ss.wg.Wait()
	ss.ticker = nil
	log.Println("[Sync] Stopped")
}

func (ss *SyncScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ss.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	ss.syncAll(ctx)

	for {
		select {
		case <-ticker.C:
			ss.syncAll(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate sync (for testing/admin).
func (ss *SyncScheduler) RunNow(ctx context.Context) SyncSummary {
	return ss.syncAll(ctx)
}

// Window returns the period the next run will sync.
func (ss *SyncScheduler) Window() calendar.Period {
	return calendar.TrailingWeeks(ss.Handler.today(), ss.Weeks)
}

func (ss *SyncScheduler) syncAll(ctx context.Context) SyncSummary {
	var summary SyncSummary
	window := ss.Window()

	users := ss.Users
	if len(users) == 0 {
		var err error
		users, err = ss.Handler.Store.ListUsers(ctx)
		if err != nil {
			log.Printf("[Sync] Error listing users: %v", err)
			return summary
		}
	}

	log.Printf("[Sync] Syncing %d users for %s", len(users), window)

	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		n, err := ss.Handler.Sync(ctx, userID, window)
		if err != nil {
			log.Printf("[Sync] Error syncing %s: %v", userID, err)
			summary.Failed++
			continue
		}
		summary.Users++
		summary.Entries += n
	}

	log.Printf("[Sync] Completed: %d users, %d entries, %d failed", summary.Users, summary.Entries, summary.Failed)
	return summary
}
