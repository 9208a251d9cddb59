// Package api wires the chi router, middleware stack and handlers.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"

	"github.com/campushub/campushub-core/internal/alerts"
	"github.com/campushub/campushub-core/internal/api/handler"
	"github.com/campushub/campushub-core/internal/auth"
	"github.com/campushub/campushub-core/internal/booking"
	"github.com/campushub/campushub-core/internal/config"
	"github.com/campushub/campushub-core/internal/store"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes.
func NewRouter(
	pool *pgxpool.Pool,
	bookings *booking.Service,
	verifier *auth.Verifier,
	st store.Store,
	dir store.Directory,
	sessions *alerts.SessionRegistry,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, bookings, verifier, st, dir, sessions, cfg, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Bookings
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.CreateBooking)
			r.Get("/availability", h.CheckAvailability)
			r.Delete("/{bookingID}", h.DeleteBooking)
		})

		// Live alert stream (websocket)
		r.Get("/alerts/stream", h.StreamAlerts)
	})

	return r
}
