// Package booking guards shared resources (classrooms) against
// double-booking. The conflict check is pure and speculative; the Postgres
// repository serializes check-then-commit per (resource, date) so two
// concurrent requests for the same slot cannot both land.
package booking

import "errors"

var (
	// ErrSlotTaken signals a conflict with an existing reservation. An
	// expected, recoverable outcome — surfaced to the user as "slot
	// unavailable", never logged as a system error.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrInvalidInterval signals a zero-length or inverted candidate
	// interval. Rejected before any conflict check runs.
	ErrInvalidInterval = errors.New("start must be before end")

	// ErrNotFound signals a missing reservation id.
	ErrNotFound = errors.New("reservation not found")
)

// Reservation is one committed (or candidate) hold on a resource for part
// of a calendar day. Date is YYYY-MM-DD with no time zone; Start/EndMinute
// are minutes since midnight forming the half-open interval [start, end).
type Reservation struct {
	ID          string
	ResourceID  string
	OwnerID     string
	Date        string
	StartMinute int
	EndMinute   int
}
