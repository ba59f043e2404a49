/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Scheduling Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (env > file > defaults)
  3. Initialize logger and SQLite store
  4. Wire domain services and HTTP handlers
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Configuration file path (default: ./config.yaml if present)
  -port    HTTP server port override
  -db      SQLite database path override
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/scheduling.db"

  # Run with an explicit config file
  ./server -config="./deploy/config.yaml"

ENVIRONMENT:
  All settings can come from SCHED_* variables, e.g. SCHED_SERVER_PORT,
  SCHED_AUTH_JWT_SECRET. See config/config.go for the full set.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration schema and defaults
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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/scheduling-engine/api"
	"github.com/warp/scheduling-engine/config"
	"github.com/warp/scheduling-engine/logging"
	"github.com/warp/scheduling-engine/roster"
	"github.com/warp/scheduling-engine/store/sqlite"
	"github.com/warp/scheduling-engine/timeoff"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "configuration file path")
	port := flag.Int("port", 0, "HTTP server port override")
	dbPath := flag.String("db", "", "SQLite database path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	tokenTTL, err := cfg.Auth.TTL()
	if err != nil {
		logger.Fatal("invalid token ttl", zap.Error(err))
	}

	// Initialize store
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire domain services
	rules := cfg.Policy.RuleSet()
	templates := roster.NewTemplateService(store)
	plans := roster.NewPlanService(store)
	special := roster.NewSpecialDayService(store)
	validator := timeoff.NewValidator(rules, store, store)
	lifecycle := timeoff.NewService(store, store, validator)

	tokens := api.NewTokenManager(cfg.Auth.JWTSecret, tokenTTL)
	server := api.NewServer(logger, tokens, store, templates, plans, special, validator, lifecycle, api.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		KioskRate:    rate.Limit(cfg.Server.KioskRatePerSecond),
		KioskBurst:   cfg.Server.KioskBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.DB.Path))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
