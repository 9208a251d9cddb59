// Package store defines the boundary to the campus document store: bulk
// reads for catch-up scans and a live change feed by subscription. The
// Postgres implementation consumes LISTEN/NOTIFY; tests use in-memory
// fakes.
package store

import "context"

// Watched collection names. The alert pipeline subscribes to these; the
// booking workflow writes reservations through its own repository.
const (
	CollectionEvents      = "events"
	CollectionSchedules   = "class_schedules"
	CollectionCourses     = "courses"
	CollectionEnrollments = "enrollments"
)

// ChangeKind classifies a change-feed entry.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Record is one stored document: its id plus the row serialized as JSON.
type Record struct {
	ID   string
	Data []byte
}

// ChangeEvent is one entry from the live change feed. Read-only input:
// consumers must not mutate Data.
type ChangeEvent struct {
	Collection string
	Kind       ChangeKind
	ID         string
	Data       []byte
}

// Store is the query/subscribe contract of the backend document store.
//
// Subscribe delivers only future changes; it does not replay pre-existing
// rows. Consumers that need them run a FetchAll catch-up pass first (the
// named two-step catch-up-then-subscribe protocol).
type Store interface {
	FetchAll(ctx context.Context, collection string) ([]Record, error)
	Subscribe(collection string, onChange func(ChangeEvent)) (unsubscribe func(), err error)
}

// Directory resolves the enrollment chain used to scope a learner's
// schedule view: enrollments → courses → module titles.
type Directory interface {
	EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error)
	ModuleTitles(ctx context.Context, courseID string) ([]string, error)
}
