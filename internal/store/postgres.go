package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	channel          = "campus_changes"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// fetchStatements maps watched collections to their prepared statements.
// Each returns (id, to_jsonb(row)) pairs.
var fetchStatements = map[string]string{
	CollectionEvents:      "fetch_events",
	CollectionSchedules:   "fetch_schedules",
	CollectionCourses:     "fetch_courses",
	CollectionEnrollments: "fetch_enrollments",
}

// feedPayload is the JSON body of pg_notify('campus_changes', ...), fired
// by row triggers on every watched table.
type feedPayload struct {
	Collection string          `json:"collection"`
	Kind       string          `json:"kind"`
	ID         string          `json:"id"`
	Doc        json.RawMessage `json:"doc"`
}

// Postgres implements Store and Directory on top of pgx. The change feed
// holds a dedicated connection (not from the pool) listening on the
// campus_changes channel, reconnecting with exponential backoff.
//
// Callbacks are invoked from the single listen goroutine, so deliveries
// for a collection arrive in feed order and never interleave
// mid-classification.
type Postgres struct {
	pool   *pgxpool.Pool
	dbURL  string
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(ChangeEvent)
}

// NewPostgres creates a Postgres-backed store. Call Run to start the
// change feed; FetchAll works without it.
func NewPostgres(pool *pgxpool.Pool, dbURL string, logger *slog.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		dbURL:  dbURL,
		logger: logger,
		subs:   make(map[string]map[int]func(ChangeEvent)),
	}
}

// FetchAll returns every document in a watched collection.
func (p *Postgres) FetchAll(ctx context.Context, collection string) ([]Record, error) {
	stmt, ok := fetchStatements[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	rows, err := p.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", collection, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Subscribe registers a callback for future changes to one collection.
// The returned function removes the registration; it is safe to call more
// than once.
func (p *Postgres) Subscribe(collection string, onChange func(ChangeEvent)) (func(), error) {
	if _, ok := fetchStatements[collection]; !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	if p.subs[collection] == nil {
		p.subs[collection] = make(map[int]func(ChangeEvent))
	}
	p.subs[collection][id] = onChange

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs[collection], id)
			p.mu.Unlock()
		})
	}, nil
}

// Run drives the LISTEN loop, reconnecting on connection loss. Blocks
// until ctx is cancelled. Intended to be called with `go`.
func (p *Postgres) Run(ctx context.Context) {
	backoff := reconnectBackoff

	for {
		err := p.listenLoop(ctx)
		if ctx.Err() != nil {
			p.logger.Info("Change feed stopped (context cancelled)")
			return
		}

		p.logger.Error("Change feed disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Postgres) listenLoop(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, p.dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	p.logger.Info("Change feed connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var payload feedPayload
		if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
			p.logger.Warn("Failed to parse change event",
				"payload", notification.Payload, "error", err)
			continue
		}

		p.deliver(ChangeEvent{
			Collection: payload.Collection,
			Kind:       ChangeKind(payload.Kind),
			ID:         payload.ID,
			Data:       payload.Doc,
		})
	}
}

// deliver fans a change out to the collection's subscribers, synchronously
// and in registration order independence (map order); per-collection
// ordering comes from the single listen goroutine.
func (p *Postgres) deliver(ev ChangeEvent) {
	p.mu.Lock()
	callbacks := make([]func(ChangeEvent), 0, len(p.subs[ev.Collection]))
	for _, fn := range p.subs[ev.Collection] {
		callbacks = append(callbacks, fn)
	}
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(ev)
	}
}

// EnrolledCourseIDs returns the course ids a learner is enrolled in.
func (p *Postgres) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	return p.queryStrings(ctx, "enrollments_for_student", studentID)
}

// ModuleTitles returns the module titles contained in a course.
func (p *Postgres) ModuleTitles(ctx context.Context, courseID string) ([]string, error) {
	return p.queryStrings(ctx, "module_titles_for_course", courseID)
}

func (p *Postgres) queryStrings(ctx context.Context, stmt string, arg any) ([]string, error) {
	rows, err := p.pool.Query(ctx, stmt, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan %s: %w", stmt, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
