package alerts

import (
	"context"
	"sync"
	"time"
)

// DedupStore is a time-indexed set of alert keys with TTL eviction. It
// answers "has this exact alert already fired" atomically, so an alert
// fires at most once per key per TTL window across every classification
// path.
type DedupStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration

	now func() time.Time
}

// NewDedupStore creates a dedup store with the given TTL.
func NewDedupStore(ttl time.Duration) *DedupStore {
	return &DedupStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CheckAndMark reports whether key already has a live entry. When it does
// not, the key is marked in the same critical section, so concurrent
// callers cannot both see "novel".
func (d *DedupStore) CheckAndMark(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if firstSeen, ok := d.entries[key]; ok && now.Sub(firstSeen) <= d.ttl {
		return true
	}
	d.entries[key] = now
	return false
}

// Sweep removes every entry older than the TTL.
func (d *DedupStore) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, firstSeen := range d.entries {
		if now.Sub(firstSeen) > d.ttl {
			delete(d.entries, key)
		}
	}
}

// Len returns the number of entries, live or expired-but-unswept.
func (d *DedupStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// RunSweeper sweeps once shortly after start (clearing stale state from a
// prior session) and then on every interval tick. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func (d *DedupStore) RunSweeper(ctx context.Context, interval time.Duration) {
	select {
	case <-time.After(startupSweepDelay):
		d.Sweep()
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
