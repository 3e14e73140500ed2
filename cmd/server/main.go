/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timebank HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, YAML file, TIMEBANK_* env, flags)
  2. Build the engine from the configured rules
  3. Initialize SQLite store
  4. Create the provider client when a token is configured
  5. Start the sync scheduler and the HTTP server

COMMAND-LINE FLAGS:
  -config  YAML config file (default: $TIMEBANK_CONFIG_PATH)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sync scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -config=./timebank.yml
  TIMEBANK_HARVEST_TOKEN=... ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Configuration layers
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/timebank/api"
	"github.com/warp/timebank/config"
	"github.com/warp/timebank/harvest"
	"github.com/warp/timebank/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	engine, err := cfg.Engine()
	if err != nil {
		log.Fatalf("Invalid engine rules: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Provider is optional; without it /sync answers 503
	var source api.EntrySource
	if cfg.Harvest.Enabled() {
		source = harvest.NewTokenClient(context.Background(), cfg.Harvest.AccessToken, harvest.Options{
			BaseURL:   cfg.Harvest.BaseURL,
			AccountID: cfg.Harvest.AccountID,
		})
	} else {
		log.Println("[Sync] No provider token configured, sync disabled")
	}

	handler := api.NewHandler(store, engine, source)

	scheduler := api.NewSyncScheduler(handler, cfg.Harvest.Users)
	if interval, err := cfg.Harvest.Interval(); err != nil {
		log.Fatalf("Invalid sync interval: %v", err)
	} else {
		scheduler.Interval = interval
	}
	if cfg.Harvest.SyncWeeks > 0 {
		scheduler.Weeks = cfg.Harvest.SyncWeeks
	}
	scheduler.Start()

	router := api.NewRouter(handler, cfg.Server.AllowedOrigins...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
