package booking

import "github.com/campushub/campushub-core/internal/timeslot"

// IsAvailable reports whether the candidate can be admitted against the
// given reservations. Only entries for the candidate's resource and date
// are considered; everything else is ignored. Does not mutate existing and
// is safe to call speculatively before commit — the caller owns making the
// commit race-free (see the Postgres repository).
//
// The candidate interval must already satisfy start < end.
func IsAvailable(candidate Reservation, existing []Reservation) bool {
	for _, r := range existing {
		if r.ResourceID != candidate.ResourceID || r.Date != candidate.Date {
			continue
		}
		if timeslot.Overlaps(candidate.StartMinute, candidate.EndMinute, r.StartMinute, r.EndMinute) {
			return false
		}
	}
	return true
}
