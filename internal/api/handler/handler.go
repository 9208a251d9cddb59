// Package handler provides HTTP handlers for the booking API and the
// live alert stream.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub-core/internal/alerts"
	"github.com/campushub/campushub-core/internal/api/respond"
	"github.com/campushub/campushub-core/internal/auth"
	"github.com/campushub/campushub-core/internal/booking"
	"github.com/campushub/campushub-core/internal/config"
	"github.com/campushub/campushub-core/internal/store"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool     *pgxpool.Pool
	bookings *booking.Service
	verifier *auth.Verifier
	store    store.Store
	dir      store.Directory
	sessions *alerts.SessionRegistry
	cfg      *config.Config
	logger   *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(
	pool *pgxpool.Pool,
	bookings *booking.Service,
	verifier *auth.Verifier,
	st store.Store,
	dir store.Directory,
	sessions *alerts.SessionRegistry,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pool:     pool,
		bookings: bookings,
		verifier: verifier,
		store:    st,
		dir:      dir,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "CampusHub Core API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
