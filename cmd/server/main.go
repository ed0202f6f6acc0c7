/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, .env, environment, flags)
  2. Build the logger
  3. Load the accrual policy (file or defaults)
  4. Initialize SQLite store (runs migrations)
  5. Wire service, reports, handler and router
  6. Start the agreed-day scheduler
  7. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database, JSON logs
  ./server -db=":memory:" -log-format=json

  # Custom policy
  LEAVE_POLICY_FILE=./policy.json ./server

SEE ALSO:
  - config/config.go: All settings and their variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	calc := leave.NewCalculator()
	if cfg.PolicyFile != "" {
		policy, err := factory.NewPolicyFactory().LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return err
		}
		calc.Policy = policy
		logger.Info("accrual policy loaded", "file", cfg.PolicyFile, "base_days", policy.BaseDays)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	svc := leave.NewService(store, calc, logger)
	handler := api.NewHandler(svc, report.NewGenerator(calc), store, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	scheduler := api.NewAgreedDayScheduler(svc, cfg.SeedSchedule, logger)
	scheduler.Enabled = cfg.SchedulerEnabled
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
