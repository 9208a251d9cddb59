// Package maintenance runs periodic background tasks as Go tickers: purging
// expired reservations and re-running catch-up scans for live alert
// sessions to cover change-feed gaps.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Rescanner re-runs catch-up for every live alert session.
type Rescanner interface {
	RescanAll(ctx context.Context)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval      time.Duration // Purge of past reservations
	RescanInterval       time.Duration // Catch-up rescan of live sessions
	ReservationRetention time.Duration // How long past reservations are kept
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval:      30 * time.Minute,
		RescanInterval:       15 * time.Minute,
		ReservationRetention: 90 * 24 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pool *pgxpool.Pool, sessions Rescanner, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"rescan", cfg.RescanInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Cleanup: remove reservations past the retention window
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanup(ctx, pool, cfg.ReservationRetention, logger) })
	}

	// Rescan: re-run catch-up for live sessions so changes missed during
	// a feed disconnect still surface (the dedup gate drops repeats)
	if cfg.RescanInterval > 0 && sessions != nil {
		t := time.NewTicker(cfg.RescanInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { sessions.RescanAll(ctx) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// cleanup removes reservations whose day is past the retention window.
func cleanup(ctx context.Context, pool *pgxpool.Pool, retention time.Duration, logger *slog.Logger) {
	cutoff := time.Now().Add(-retention).Format("2006-01-02")
	tag, err := pool.Exec(ctx, "DELETE FROM reservations WHERE date < $1::date", cutoff)
	if err != nil {
		logger.Warn("Cleanup: failed to purge old reservations", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("Cleanup: purged old reservations", "count", tag.RowsAffected())
	}
}
