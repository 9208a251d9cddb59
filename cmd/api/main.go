// Command api is the CampusHub Core API server: classroom bookings over
// HTTP and live campus alerts over websocket streams.
//
// Usage:
//
//	campushub-api
//	API_PORT=8080 campushub-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/campushub/campushub-core/internal/alerts"
	"github.com/campushub/campushub-core/internal/api"
	"github.com/campushub/campushub-core/internal/auth"
	"github.com/campushub/campushub-core/internal/booking"
	"github.com/campushub/campushub-core/internal/config"
	"github.com/campushub/campushub-core/internal/db"
	"github.com/campushub/campushub-core/internal/maintenance"
	"github.com/campushub/campushub-core/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Campus store: bulk reads + LISTEN/NOTIFY change feed
	campusStore := store.NewPostgres(pool.Pool, cfg.DatabaseURL, logger)
	go campusStore.Run(ctx)

	// Booking workflow
	bookings := booking.NewService(booking.NewPostgresRepository(pool.Pool), logger)

	// Alert sessions + maintenance tickers
	sessions := alerts.NewSessionRegistry()
	go maintenance.Start(ctx, pool.Pool, sessions, maintenance.Config{
		CleanupInterval:      cfg.CleanupInterval,
		RescanInterval:       cfg.RescanInterval,
		ReservationRetention: cfg.ReservationRetention,
	}, logger)

	// Create router
	verifier := auth.NewVerifier(cfg.JWTSecret)
	router := api.NewRouter(pool.Pool, bookings, verifier, campusStore, campusStore, sessions, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting CampusHub Core API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
