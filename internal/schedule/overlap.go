package schedule

import "time"

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) on the same weekday share at least one minute. A window
// ending exactly when another begins does not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// InstantsOverlap is the same predicate over absolute instants, used for
// appointment conflict detection once a slot duration is applied.
func InstantsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
