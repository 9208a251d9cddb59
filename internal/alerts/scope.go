package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/campushub/campushub-core/internal/store"
)

// Role is the closed set of client roles. Anything outside the known
// values maps to RoleObserver, which receives the unscoped feed.
type Role string

const (
	RoleLearner  Role = "learner"
	RoleStaff    Role = "staff"
	RoleObserver Role = "observer"
)

// ParseRole normalizes a raw role claim into the closed set.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleLearner, RoleStaff:
		return Role(s)
	}
	return RoleObserver
}

// Identity is the authenticated client a pipeline runs for.
type Identity struct {
	UserID string
	Role   Role
}

// ScheduleScope narrows the schedule feed to one client's view. One
// strategy exists per role; the orchestrator dispatches through the
// interface instead of re-comparing role strings per call site.
type ScheduleScope interface {
	// Refresh re-resolves any indirect lookup state. A failed refresh
	// leaves the previous state in place ("no data this round").
	Refresh(ctx context.Context) error
	// Allows reports whether a schedule belongs to this client's view.
	Allows(s Schedule) bool
}

// ScopeFor picks the scoping strategy for an identity.
func ScopeFor(id Identity, dir store.Directory) ScheduleScope {
	switch id.Role {
	case RoleLearner:
		return &learnerScope{dir: dir, studentID: id.UserID}
	case RoleStaff:
		return &staffScope{lecturerID: id.UserID}
	}
	return globalScope{}
}

// learnerScope resolves a learner's relevant schedules indirectly:
// enrollments → courses → module titles → schedules matching those titles.
type learnerScope struct {
	dir       store.Directory
	studentID string

	mu     sync.RWMutex
	titles map[string]struct{}
}

func (l *learnerScope) Refresh(ctx context.Context) error {
	courseIDs, err := l.dir.EnrolledCourseIDs(ctx, l.studentID)
	if err != nil {
		return fmt.Errorf("resolve enrollments for %s: %w", l.studentID, err)
	}

	titles := make(map[string]struct{})
	for _, courseID := range courseIDs {
		moduleTitles, err := l.dir.ModuleTitles(ctx, courseID)
		if err != nil {
			return fmt.Errorf("resolve modules for course %s: %w", courseID, err)
		}
		for _, t := range moduleTitles {
			titles[t] = struct{}{}
		}
	}

	l.mu.Lock()
	l.titles = titles
	l.mu.Unlock()
	return nil
}

func (l *learnerScope) Allows(s Schedule) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.titles[s.Title]
	return ok
}

// staffScope matches schedules owned by the staff member.
type staffScope struct {
	lecturerID string
}

func (st *staffScope) Refresh(ctx context.Context) error { return nil }

func (st *staffScope) Allows(s Schedule) bool {
	return s.LecturerID == st.lecturerID
}

// globalScope is the unscoped feed for every other role.
type globalScope struct{}

func (globalScope) Refresh(ctx context.Context) error { return nil }
func (globalScope) Allows(s Schedule) bool            { return true }
