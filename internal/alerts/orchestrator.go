package alerts

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/campushub/campushub-core/internal/store"
)

// watchedCollections are the feeds the orchestrator classifies. The
// enrollments feed is watched separately: it never emits alerts, it only
// keeps a learner's scope current.
var watchedCollections = []string{
	store.CollectionEvents,
	store.CollectionSchedules,
	store.CollectionCourses,
}

// Orchestrator subscribes to the change feed of each watched collection,
// classifies changes, gates them through the dedup store and enqueues
// novel alerts. One instance serves one client session.
type Orchestrator struct {
	store  store.Store
	scope  ScheduleScope
	dedup  *DedupStore
	queue  *Queue
	id     Identity
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	unsubs []func()
}

// NewOrchestrator wires an orchestrator for one identity. Call Start to
// run the catch-up-then-subscribe protocol.
func NewOrchestrator(st store.Store, dir store.Directory, id Identity, dedup *DedupStore, queue *Queue, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:  st,
		scope:  ScopeFor(id, dir),
		dedup:  dedup,
		queue:  queue,
		id:     id,
		logger: logger,
		now:    time.Now,
	}
}

// Start resolves the role scope, then for every watched collection runs a
// one-shot catch-up scan against current data followed by a live
// subscription. Each collection is independent: a failed catch-up or
// subscribe is logged and the others keep running.
func (o *Orchestrator) Start(ctx context.Context) {
	if err := o.scope.Refresh(ctx); err != nil {
		o.logger.Warn("Scope resolution failed, no scoped schedules this round",
			"user", o.id.UserID, "role", o.id.Role, "error", err)
	}

	for _, collection := range watchedCollections {
		o.watch(ctx, collection, func(ev store.ChangeEvent) {
			o.handleChange(ctx, ev)
		})
	}

	// Enrollment changes re-resolve a learner's scope; other roles do not
	// depend on enrollments at all.
	if o.id.Role == RoleLearner {
		o.watch(ctx, store.CollectionEnrollments, func(ev store.ChangeEvent) {
			if err := o.scope.Refresh(ctx); err != nil {
				o.logger.Warn("Scope refresh failed", "user", o.id.UserID, "error", err)
			}
		})
	}
}

// watch runs catch-up then subscribe for one collection. Catch-up only
// applies to alert-bearing collections.
func (o *Orchestrator) watch(ctx context.Context, collection string, onChange func(store.ChangeEvent)) {
	if collection != store.CollectionEnrollments {
		if err := o.catchUp(ctx, collection); err != nil {
			o.logger.Warn("Catch-up scan failed, no data this round",
				"collection", collection, "error", err)
		}
	}

	unsub, err := o.store.Subscribe(collection, onChange)
	if err != nil {
		o.logger.Warn("Subscribe failed", "collection", collection, "error", err)
		return
	}
	o.mu.Lock()
	o.unsubs = append(o.unsubs, unsub)
	o.mu.Unlock()
}

// catchUp surfaces pre-existing, still-relevant documents once. Records
// are replayed through classification as synthetic "added" changes; the
// dedup gate keeps them from firing twice against the live feed.
func (o *Orchestrator) catchUp(ctx context.Context, collection string) error {
	records, err := o.store.FetchAll(ctx, collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		o.handleChange(ctx, store.ChangeEvent{
			Collection: collection,
			Kind:       store.ChangeAdded,
			ID:         r.ID,
			Data:       r.Data,
		})
	}
	return nil
}

// Rescan re-resolves the scope and re-runs every catch-up scan. The
// maintenance ticker calls this for live sessions to cover change-feed
// gaps; the dedup gate suppresses anything already surfaced.
func (o *Orchestrator) Rescan(ctx context.Context) {
	if err := o.scope.Refresh(ctx); err != nil {
		o.logger.Warn("Scope refresh failed during rescan",
			"user", o.id.UserID, "error", err)
	}
	for _, collection := range watchedCollections {
		if err := o.catchUp(ctx, collection); err != nil {
			o.logger.Warn("Rescan failed, no data this round",
				"collection", collection, "error", err)
		}
	}
}

// Stop synchronously unsubscribes every live subscription. In-flight
// deliveries already dequeued are allowed to complete.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	unsubs := o.unsubs
	o.unsubs = nil
	o.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// --------------------------------------------------------------------------
// Classification
// --------------------------------------------------------------------------

func (o *Orchestrator) handleChange(ctx context.Context, ev store.ChangeEvent) {
	switch ev.Collection {
	case store.CollectionEvents:
		o.classifyEvent(ev)
	case store.CollectionSchedules:
		o.classifySchedule(ev)
	case store.CollectionCourses:
		o.classifyCourse(ev)
	}
}

func (o *Orchestrator) classifyEvent(ev store.ChangeEvent) {
	if ev.Kind == store.ChangeRemoved {
		return
	}
	var e Event
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		o.logger.Warn("Undecodable event document", "id", ev.ID, "error", err)
		return
	}
	bucket, err := bucketForDate(e.Date, o.now())
	if err != nil {
		o.logger.Warn("Event date unparseable, skipping", "id", ev.ID, "error", err)
		return
	}
	if bucket == BucketNone {
		return
	}
	o.emit("event", ev.ID, bucket, ev.Kind, eventMessage(e, bucket))
}

func (o *Orchestrator) classifySchedule(ev store.ChangeEvent) {
	var s Schedule
	if err := json.Unmarshal(ev.Data, &s); err != nil {
		o.logger.Warn("Undecodable schedule document", "id", ev.ID, "error", err)
		return
	}
	if !o.scope.Allows(s) {
		return
	}

	// Removal is a cancellation regardless of date.
	if ev.Kind == store.ChangeRemoved {
		o.emit("schedule", ev.ID, BucketCancelled, ev.Kind, scheduleMessage(s, BucketCancelled))
		return
	}

	bucket, err := bucketForDate(s.Date, o.now())
	if err != nil {
		o.logger.Warn("Schedule date unparseable, skipping", "id", ev.ID, "error", err)
		return
	}
	if bucket == BucketNone {
		return
	}
	o.emit("schedule", ev.ID, bucket, ev.Kind, scheduleMessage(s, bucket))
}

func (o *Orchestrator) classifyCourse(ev store.ChangeEvent) {
	// Courses alert on added/modified with no date filter.
	if ev.Kind == store.ChangeRemoved {
		return
	}
	var c Course
	if err := json.Unmarshal(ev.Data, &c); err != nil {
		o.logger.Warn("Undecodable course document", "id", ev.ID, "error", err)
		return
	}
	o.emit("course", ev.ID, BucketNone, ev.Kind, courseMessage(c, ev.Kind))
}

// emit gates one classified outcome through the dedup store and enqueues
// it when novel.
func (o *Orchestrator) emit(domain, entityID string, bucket Bucket, kind store.ChangeKind, message string) {
	key := dedupKey(domain, entityID, bucket, kind)
	if o.dedup.CheckAndMark(key) {
		o.logger.Debug("Alert suppressed by dedup", "key", key)
		return
	}
	o.queue.Enqueue(message)
	o.logger.Info("Alert enqueued", "key", key, "message", message)
}
