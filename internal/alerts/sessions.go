package alerts

import (
	"context"
	"sync"
)

// SessionRegistry tracks the live pipelines of connected clients so the
// maintenance rescan can re-run their catch-up scans.
type SessionRegistry struct {
	mu       sync.Mutex
	nextID   int
	sessions map[int]*Pipeline
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[int]*Pipeline)}
}

// Add registers a pipeline and returns its removal function.
func (r *SessionRegistry) Add(p *Pipeline) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.sessions[id] = p

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.sessions, id)
			r.mu.Unlock()
		})
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RescanAll re-runs catch-up for every live session.
func (r *SessionRegistry) RescanAll(ctx context.Context) {
	r.mu.Lock()
	pipelines := make([]*Pipeline, 0, len(r.sessions))
	for _, p := range r.sessions {
		pipelines = append(pipelines, p)
	}
	r.mu.Unlock()

	for _, p := range pipelines {
		p.Rescan(ctx)
	}
}
