package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores reservations in Postgres. ReserveSlot takes a
// per-(resource, date) advisory transaction lock so the conflict check and
// the insert commit as one serialization point — concurrent attempts for
// the same resource-day queue up instead of racing.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed reservation repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ReserveSlot checks and inserts atomically. Returns ErrSlotTaken when the
// candidate overlaps an existing reservation for the same resource and day.
func (p *PostgresRepository) ReserveSlot(ctx context.Context, r Reservation) (string, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback(context.Background())

	// Serialize all check-then-commit sequences for this resource-day.
	lockKey := r.ResourceID + "@" + r.Date
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
		return "", fmt.Errorf("acquire slot lock: %w", err)
	}

	existing, err := scanReservations(tx.Query(ctx,
		"reservations_for_resource_day", r.ResourceID, r.Date))
	if err != nil {
		return "", fmt.Errorf("list existing reservations: %w", err)
	}
	if !IsAvailable(r, existing) {
		return "", ErrSlotTaken
	}

	var id string
	err = tx.QueryRow(ctx, "insert_reservation",
		r.ResourceID, r.OwnerID, r.Date, r.StartMinute, r.EndMinute).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit reservation: %w", err)
	}
	return id, nil
}

// ListForResourceDay returns all reservations for a resource on a day.
func (p *PostgresRepository) ListForResourceDay(ctx context.Context, resourceID, date string) ([]Reservation, error) {
	rs, err := scanReservations(p.pool.Query(ctx, "reservations_for_resource_day", resourceID, date))
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return rs, nil
}

// Delete removes a reservation. Returns ErrNotFound for an unknown id.
func (p *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, "delete_reservation", id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReservations(rows pgx.Rows, err error) ([]Reservation, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.ResourceID, &r.OwnerID, &r.Date, &r.StartMinute, &r.EndMinute); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
