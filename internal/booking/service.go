package booking

import (
	"context"
	"fmt"
	"log/slog"
)

// Repository persists reservations. ReserveSlot must perform the conflict
// check and the insert atomically for the reservation's (resource, date)
// pair, returning ErrSlotTaken on conflict.
type Repository interface {
	ReserveSlot(ctx context.Context, r Reservation) (string, error)
	ListForResourceDay(ctx context.Context, resourceID, date string) ([]Reservation, error)
	Delete(ctx context.Context, id string) error
}

// Service is the booking workflow invoked by the HTTP handlers and CLI.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a booking service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and persists a reservation candidate. Returns the new
// reservation id, ErrInvalidInterval for a zero-or-negative-length
// interval, or ErrSlotTaken when the slot conflicts.
func (s *Service) Create(ctx context.Context, r Reservation) (string, error) {
	if r.StartMinute >= r.EndMinute {
		return "", ErrInvalidInterval
	}
	id, err := s.repo.ReserveSlot(ctx, r)
	if err != nil {
		return "", err
	}
	s.logger.Info("Reservation created",
		"id", id, "resource", r.ResourceID, "date", r.Date,
		"start", r.StartMinute, "end", r.EndMinute)
	return id, nil
}

// CheckAvailability answers whether the candidate slot is free right now.
// Purely advisory: the answer can be stale by the time a commit happens,
// which is why Create re-checks under the repository's serialization.
func (s *Service) CheckAvailability(ctx context.Context, r Reservation) (bool, error) {
	if r.StartMinute >= r.EndMinute {
		return false, ErrInvalidInterval
	}
	existing, err := s.repo.ListForResourceDay(ctx, r.ResourceID, r.Date)
	if err != nil {
		return false, fmt.Errorf("list reservations: %w", err)
	}
	return IsAvailable(r, existing), nil
}

// ListDay returns the reservations for one resource on one day.
func (s *Service) ListDay(ctx context.Context, resourceID, date string) ([]Reservation, error) {
	return s.repo.ListForResourceDay(ctx, resourceID, date)
}

// Cancel removes a reservation by id.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Reservation cancelled", "id", id)
	return nil
}
