package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campushub/campushub-core/internal/store"
)

// fakeStore is an in-memory Store with a pushable change feed.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string][]store.Record
	fetchErr map[string]error
	subs     map[string][]func(store.ChangeEvent)
	unsubbed int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[string][]store.Record),
		fetchErr: make(map[string]error),
		subs:     make(map[string][]func(store.ChangeEvent)),
	}
}

func (f *fakeStore) FetchAll(ctx context.Context, collection string) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[collection]; err != nil {
		return nil, err
	}
	return f.records[collection], nil
}

func (f *fakeStore) Subscribe(collection string, onChange func(store.ChangeEvent)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[collection] = append(f.subs[collection], onChange)
	return func() {
		f.mu.Lock()
		f.unsubbed++
		f.mu.Unlock()
	}, nil
}

func (f *fakeStore) push(ev store.ChangeEvent) {
	f.mu.Lock()
	callbacks := append([]func(store.ChangeEvent){}, f.subs[ev.Collection]...)
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn(ev)
	}
}

func (f *fakeStore) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubbed
}

// testOrchestrator builds an orchestrator with a frozen clock and a queue
// whose drain loop is not running, so enqueued alerts can be counted.
func testOrchestrator(st *fakeStore, dir store.Directory, id Identity) (*Orchestrator, *Queue) {
	dedup := NewDedupStore(DefaultDedupTTL)
	queue := NewQueue(discardSink{}, time.Millisecond, testLogger())
	o := NewOrchestrator(st, dir, id, dedup, queue, testLogger())
	o.now = func() time.Time { return clock }
	return o, queue
}

type discardSink struct{}

func (discardSink) Display(string) {}

func scheduleDoc(id, title, date, lecturer string) []byte {
	return fmt.Appendf(nil,
		`{"id":%q,"title":%q,"date":%q,"start_time":"09:00","end_time":"10:00","lecturer_id":%q}`,
		id, title, date, lecturer)
}

func observer() Identity { return Identity{UserID: "u1", Role: RoleObserver} }

func TestTomorrowScheduleAlertsOnce(t *testing.T) {
	st := newFakeStore()
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	doc := scheduleDoc("s1", "Databases", "2026-03-03", "lec-9") // tomorrow
	st.push(store.ChangeEvent{Collection: store.CollectionSchedules, Kind: store.ChangeAdded, ID: "s1", Data: doc})
	st.push(store.ChangeEvent{Collection: store.CollectionSchedules, Kind: store.ChangeModified, ID: "s1", Data: doc})

	// Exactly one "tomorrow" alert: the modified repeat is suppressed.
	if got := queue.Len(); got != 1 {
		t.Fatalf("enqueued alerts: got %d, want 1", got)
	}
	item, _ := queue.pop()
	if !strings.Contains(item.message, "tomorrow") {
		t.Fatalf("message %q: want a tomorrow alert", item.message)
	}
}

func TestRemovedScheduleCancelsRegardlessOfDate(t *testing.T) {
	st := newFakeStore()
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	doc := scheduleDoc("s2", "Databases", "2019-01-15", "lec-9") // far past
	st.push(store.ChangeEvent{Collection: store.CollectionSchedules, Kind: store.ChangeRemoved, ID: "s2", Data: doc})

	if got := queue.Len(); got != 1 {
		t.Fatalf("enqueued alerts: got %d, want 1", got)
	}
	item, _ := queue.pop()
	if !strings.Contains(item.message, "cancelled") {
		t.Fatalf("message %q: want a cancellation", item.message)
	}
}

func TestCatchUpSurfacesExistingItemsOnce(t *testing.T) {
	st := newFakeStore()
	st.records[store.CollectionEvents] = []store.Record{
		{ID: "e1", Data: []byte(`{"id":"e1","title":"Open Day","date":"2026-03-02"}`)},
	}
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	if got := queue.Len(); got != 1 {
		t.Fatalf("after catch-up: got %d alerts, want 1", got)
	}

	// The live feed replaying the same document stays suppressed.
	st.push(store.ChangeEvent{
		Collection: store.CollectionEvents, Kind: store.ChangeAdded, ID: "e1",
		Data: []byte(`{"id":"e1","title":"Open Day","date":"2026-03-02"}`),
	})
	if got := queue.Len(); got != 1 {
		t.Fatalf("after live repeat: got %d alerts, want 1", got)
	}
}

func TestCourseChangesAlwaysAlert(t *testing.T) {
	st := newFakeStore()
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	st.push(store.ChangeEvent{
		Collection: store.CollectionCourses, Kind: store.ChangeAdded, ID: "c1",
		Data: []byte(`{"id":"c1","title":"Algorithms"}`),
	})
	if got := queue.Len(); got != 1 {
		t.Fatalf("course add: got %d alerts, want 1", got)
	}
}

func TestFailureInOneCollectionIsolated(t *testing.T) {
	st := newFakeStore()
	st.fetchErr[store.CollectionEvents] = errors.New("transient read failure")
	st.records[store.CollectionCourses] = []store.Record{
		{ID: "c1", Data: []byte(`{"id":"c1","title":"Algorithms"}`)},
	}
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	// The failed events catch-up must not stop the courses scan or feed.
	if got := queue.Len(); got != 1 {
		t.Fatalf("got %d alerts, want 1 from the healthy collection", got)
	}
	if len(st.subs[store.CollectionEvents]) != 1 {
		t.Fatal("events subscription must still be live after catch-up failure")
	}
}

func TestLearnerScopedSchedules(t *testing.T) {
	st := newFakeStore()
	st.records[store.CollectionSchedules] = []store.Record{
		{ID: "s1", Data: scheduleDoc("s1", "Databases", "2026-03-02", "lec-9")},
		{ID: "s2", Data: scheduleDoc("s2", "Philosophy", "2026-03-02", "lec-2")},
	}
	o, queue := testOrchestrator(st, campusDirectory(), Identity{UserID: "stu-1", Role: RoleLearner})
	o.Start(context.Background())
	defer o.Stop()

	// Only the schedule matching an enrolled module's title surfaces.
	if got := queue.Len(); got != 1 {
		t.Fatalf("got %d alerts, want 1 in-scope alert", got)
	}
	item, _ := queue.pop()
	if !strings.Contains(item.message, "Databases") {
		t.Fatalf("message %q: want the enrolled class", item.message)
	}
}

func TestMalformedDateSuppressesOwnAlert(t *testing.T) {
	st := newFakeStore()
	o, queue := testOrchestrator(st, campusDirectory(), observer())
	o.Start(context.Background())
	defer o.Stop()

	st.push(store.ChangeEvent{
		Collection: store.CollectionEvents, Kind: store.ChangeAdded, ID: "e9",
		Data: []byte(`{"id":"e9","title":"Broken","date":"02/03/2026"}`),
	})
	if got := queue.Len(); got != 0 {
		t.Fatalf("malformed date: got %d alerts, want 0", got)
	}
}

func TestStopUnsubscribesEverything(t *testing.T) {
	st := newFakeStore()
	o, _ := testOrchestrator(st, campusDirectory(), Identity{UserID: "stu-1", Role: RoleLearner})
	o.Start(context.Background())

	// events + schedules + courses + enrollments for a learner.
	o.Stop()
	if got := st.unsubscribeCount(); got != 4 {
		t.Fatalf("unsubscribed: got %d, want 4", got)
	}

	// Stop is idempotent.
	o.Stop()
	if got := st.unsubscribeCount(); got != 4 {
		t.Fatalf("after second Stop: got %d, want 4", got)
	}
}
