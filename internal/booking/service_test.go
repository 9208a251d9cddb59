package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// memRepo is an in-memory Repository for tests. Mirrors the Postgres
// implementation's contract: ReserveSlot re-checks under its own lock.
type memRepo struct {
	reservations []Reservation
	nextID       int
	listErr      error
}

func (m *memRepo) ReserveSlot(ctx context.Context, r Reservation) (string, error) {
	if !IsAvailable(r, m.reservations) {
		return "", ErrSlotTaken
	}
	m.nextID++
	r.ID = fmt.Sprintf("res-%d", m.nextID)
	m.reservations = append(m.reservations, r)
	return r.ID, nil
}

func (m *memRepo) ListForResourceDay(ctx context.Context, resourceID, date string) ([]Reservation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Reservation
	for _, r := range m.reservations {
		if r.ResourceID == resourceID && r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	for i, r := range m.reservations {
		if r.ID == id {
			m.reservations = append(m.reservations[:i], m.reservations[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func testService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	svc := testService(&memRepo{})
	for _, c := range [][2]int{{600, 600}, {660, 600}} {
		_, err := svc.Create(context.Background(), candidate(c[0], c[1]))
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("interval [%d,%d): got %v, want ErrInvalidInterval", c[0], c[1], err)
		}
	}
}

func TestCreateThenConflict(t *testing.T) {
	svc := testService(&memRepo{})
	ctx := context.Background()

	id, err := svc.Create(ctx, candidate(540, 600))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if id == "" {
		t.Fatal("first create: empty id")
	}

	_, err = svc.Create(ctx, candidate(570, 630))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("overlapping create: got %v, want ErrSlotTaken", err)
	}

	// Back-to-back is bookable.
	if _, err := svc.Create(ctx, candidate(600, 660)); err != nil {
		t.Fatalf("back-to-back create: %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	repo := &memRepo{}
	svc := testService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, candidate(540, 600)); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	free, err := svc.CheckAvailability(ctx, candidate(510, 630))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if free {
		t.Fatal("enclosing candidate must be unavailable")
	}

	free, err = svc.CheckAvailability(ctx, candidate(480, 540))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !free {
		t.Fatal("earlier back-to-back candidate must be available")
	}
}

func TestCheckAvailabilityStoreError(t *testing.T) {
	repo := &memRepo{listErr: errors.New("connection reset")}
	svc := testService(repo)
	_, err := svc.CheckAvailability(context.Background(), candidate(540, 600))
	if err == nil {
		t.Fatal("expected error from failing repository")
	}
}

func TestCancel(t *testing.T) {
	repo := &memRepo{}
	svc := testService(repo)
	ctx := context.Background()

	id, err := svc.Create(ctx, candidate(540, 600))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(ctx, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel: got %v, want ErrNotFound", err)
	}
}
