// Package alerts turns raw change-feed events for campus collections into
// a de-duplicated, rate-limited stream of user-facing alerts.
//
// Pipeline: change feed → classify (domain type + temporal bucket) →
// dedup gate → throttled delivery queue → sink. One pipeline runs per
// client session; each watched collection follows a catch-up-then-subscribe
// protocol so pre-existing, still-relevant items surface exactly once.
package alerts

import "time"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultDedupTTL is how long a fired alert key suppresses repeats.
	DefaultDedupTTL = 24 * time.Hour

	// DefaultSweepInterval is how often expired dedup entries are evicted.
	DefaultSweepInterval = time.Hour

	// startupSweepDelay is the pause before the first sweep after a
	// pipeline starts, clearing stale state from a prior session.
	startupSweepDelay = 10 * time.Second

	// DefaultDeliverySpacing is the minimum gap between two deliveries to
	// the sink. A burst of N alerts drains over at least (N-1) spacings —
	// backpressure shaping, never loss.
	DefaultDeliverySpacing = 1000 * time.Millisecond

	// dateLayout is the normalized calendar-day format of entity dates.
	dateLayout = "2006-01-02"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Sink receives delivered alert messages. Fire-and-forget: the sink owns
// its own display lifetime and must not block.
type Sink interface {
	Display(message string)
}

// Bucket is the temporal relevance of a classified change.
type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketTomorrow  Bucket = "tomorrow"
	BucketCancelled Bucket = "cancelled"
	// BucketNone marks a change with no temporal relevance; it emits
	// nothing. Malformed dates degrade here instead of crashing the
	// pipeline.
	BucketNone Bucket = ""
)

// Event is a campus event document.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Schedule is one class-schedule document.
type Schedule struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LecturerID string `json:"lecturer_id"`
}

// Course is a course document.
type Course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
