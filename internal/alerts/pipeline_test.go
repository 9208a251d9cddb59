package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/campushub/campushub-core/internal/store"
)

func TestPipelineDeliversEndToEnd(t *testing.T) {
	st := newFakeStore()
	st.records[store.CollectionCourses] = []store.Record{
		{ID: "c1", Data: []byte(`{"id":"c1","title":"Algorithms"}`)},
	}

	sink := newRecordSink(2)
	cfg := PipelineConfig{DeliverySpacing: time.Millisecond}
	p := StartPipeline(context.Background(), st, campusDirectory(), observer(), sink, cfg, testLogger())
	defer p.Stop()

	st.push(store.ChangeEvent{
		Collection: store.CollectionCourses, Kind: store.ChangeModified, ID: "c2",
		Data: []byte(`{"id":"c2","title":"Operating Systems"}`),
	})
	sink.wait(t)

	if sink.messages[0] != `New course available: "Algorithms"` {
		t.Fatalf("catch-up delivery: got %q", sink.messages[0])
	}
	if sink.messages[1] != `Course "Operating Systems" was updated` {
		t.Fatalf("live delivery: got %q", sink.messages[1])
	}
}

func TestSessionRegistryRescanIsSuppressedByDedup(t *testing.T) {
	st := newFakeStore()
	st.records[store.CollectionCourses] = []store.Record{
		{ID: "c1", Data: []byte(`{"id":"c1","title":"Algorithms"}`)},
	}

	sink := newRecordSink(1)
	cfg := PipelineConfig{DeliverySpacing: time.Millisecond}
	p := StartPipeline(context.Background(), st, campusDirectory(), observer(), sink, cfg, testLogger())
	defer p.Stop()
	sink.wait(t)

	reg := NewSessionRegistry()
	remove := reg.Add(p)
	defer remove()
	if reg.Len() != 1 {
		t.Fatalf("registry: got %d sessions, want 1", reg.Len())
	}

	// A rescan re-fetches everything; the dedup gate keeps already-fired
	// alerts out of the queue.
	reg.RescanAll(context.Background())
	time.Sleep(50 * time.Millisecond)

	sink.mu.Lock()
	count := len(sink.messages)
	sink.mu.Unlock()
	if count != 1 {
		t.Fatalf("after rescan: got %d deliveries, want 1", count)
	}

	remove()
	if reg.Len() != 0 {
		t.Fatalf("after remove: got %d sessions, want 0", reg.Len())
	}
}
