// Package timeslot converts wall-clock times into comparable minute scalars
// and tests half-open intervals for overlap. Pure functions, no state.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds a valid minutes-since-midnight value.
const MinutesPerDay = 24 * 60

// MalformedTimeError reports a time string that does not match HH:MM.
type MalformedTimeError struct {
	Input string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: want HH:MM", e.Input)
}

// ToMinutes parses an HH:MM wall-clock time into minutes since midnight.
// Two numeric fields separated by a colon; anything else fails with
// *MalformedTimeError.
func ToMinutes(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, &MalformedTimeError{Input: s}
	}
	hours, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, &MalformedTimeError{Input: s}
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0, &MalformedTimeError{Input: s}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, &MalformedTimeError{Input: s}
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since midnight back into HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Back-to-back intervals
// (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
