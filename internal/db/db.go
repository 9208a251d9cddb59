// Package db provides a pgxpool-based connection pool with prepared
// statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub-core/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API, booking and
// alert layers use. Prepared statements eliminate parse overhead on every
// request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Bookings
		"reservations_for_resource_day": `
			SELECT id, resource_id, owner_id, to_char(date, 'YYYY-MM-DD'), start_minute, end_minute
			FROM reservations
			WHERE resource_id = $1 AND date = $2::date
			ORDER BY start_minute`,
		"insert_reservation": `
			INSERT INTO reservations (resource_id, owner_id, date, start_minute, end_minute)
			VALUES ($1, $2, $3::date, $4, $5)
			RETURNING id::text`,
		"delete_reservation": "DELETE FROM reservations WHERE id = $1::uuid",

		// Catch-up scans — (id, full row as JSON) per watched collection
		"fetch_events":      "SELECT id::text, to_jsonb(e) FROM events e",
		"fetch_schedules":   "SELECT id::text, to_jsonb(s) FROM class_schedules s",
		"fetch_courses":     "SELECT id::text, to_jsonb(c) FROM courses c",
		"fetch_enrollments": "SELECT id::text, to_jsonb(en) FROM enrollments en",

		// Learner scope resolution: enrollments → courses → module titles
		"enrollments_for_student": "SELECT course_id::text FROM enrollments WHERE student_id = $1",
		"module_titles_for_course": `
			SELECT m.title FROM course_modules m WHERE m.course_id = $1::uuid`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
