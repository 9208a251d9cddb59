package alerts

import (
	"fmt"
	"time"

	"github.com/campushub/campushub-core/internal/store"
)

// bucketForDate classifies an entity's YYYY-MM-DD date against the current
// date. Malformed dates degrade to BucketNone — a bad record suppresses
// its own alert rather than crashing the pipeline; the caller logs it.
func bucketForDate(date string, now time.Time) (Bucket, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return BucketNone, fmt.Errorf("malformed date %q: %w", date, err)
	}
	today := now.Format(dateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(dateLayout)
	switch d.Format(dateLayout) {
	case today:
		return BucketToday, nil
	case tomorrow:
		return BucketTomorrow, nil
	}
	return BucketNone, nil
}

// kindClass collapses added and modified into one class for dedup keying.
// An added-then-modified burst describes the same fact to the user; only
// removal is a distinct statement.
func kindClass(kind store.ChangeKind) string {
	if kind == store.ChangeRemoved {
		return "removed"
	}
	return "update"
}

// dedupKey derives the stable composite key {domain type, entity id,
// temporal bucket, change-kind class} gating every alert.
func dedupKey(domain, entityID string, bucket Bucket, kind store.ChangeKind) string {
	return fmt.Sprintf("%s:%s:%s:%s", domain, entityID, bucket, kindClass(kind))
}

// --------------------------------------------------------------------------
// Message building
// --------------------------------------------------------------------------

func eventMessage(e Event, bucket Bucket) string {
	switch bucket {
	case BucketToday:
		return fmt.Sprintf("Event %q is happening today", e.Title)
	case BucketTomorrow:
		return fmt.Sprintf("Event %q is happening tomorrow", e.Title)
	}
	return ""
}

func scheduleMessage(s Schedule, bucket Bucket) string {
	switch bucket {
	case BucketToday:
		return fmt.Sprintf("Class %q meets today at %s", s.Title, s.StartTime)
	case BucketTomorrow:
		return fmt.Sprintf("Class %q meets tomorrow at %s", s.Title, s.StartTime)
	case BucketCancelled:
		return fmt.Sprintf("Class %q on %s was cancelled", s.Title, s.Date)
	}
	return ""
}

func courseMessage(c Course, kind store.ChangeKind) string {
	if kind == store.ChangeAdded {
		return fmt.Sprintf("New course available: %q", c.Title)
	}
	return fmt.Sprintf("Course %q was updated", c.Title)
}
