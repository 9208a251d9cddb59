package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type queueItem struct {
	message    string
	enqueuedAt time.Time
}

// Queue is a FIFO of pending alert messages drained one at a time with a
// minimum spacing between deliveries, decoupling a noisy producer from a
// rate-limited sink. Unbounded, no drop policy: a burst of N enqueues
// yields exactly N deliveries spread over at least (N-1) spacings.
type Queue struct {
	sink    Sink
	limiter *rate.Limiter
	logger  *slog.Logger

	mu    sync.Mutex
	items []queueItem
	wake  chan struct{}
}

// NewQueue creates a queue delivering to sink with the given minimum
// spacing. Call Run to start the drain loop.
func NewQueue(sink Sink, spacing time.Duration, logger *slog.Logger) *Queue {
	return &Queue{
		sink:    sink,
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue appends a message to the tail and wakes the drain loop. Never
// blocks the caller; safe from any classification path.
func (q *Queue) Enqueue(message string) {
	q.mu.Lock()
	q.items = append(q.items, queueItem{message: message, enqueuedAt: time.Now()})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of undelivered messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run drains the queue: pop the head, wait for the spacing token, deliver.
// Idles when empty and restarts on the next Enqueue. Blocks until ctx is
// cancelled; a delivery already dequeued completes. Intended to be called
// with `go`.
func (q *Queue) Run(ctx context.Context) {
	for {
		item, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		if err := q.limiter.Wait(ctx); err != nil {
			return
		}
		q.sink.Display(item.message)
		q.logger.Debug("Alert delivered",
			"message", item.message,
			"queued_for", time.Since(item.enqueuedAt).Round(time.Millisecond))
	}
}

func (q *Queue) pop() (queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return queueItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}
