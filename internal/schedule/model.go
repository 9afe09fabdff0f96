package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a clock time expressed as minutes since midnight, 0..1440.
// Windows are recurring weekly abstractions, so a concrete date never
// attaches to them; only the weekday and the two TimeOfDay bounds do.
type TimeOfDay int

const MinutesPerDay = 24 * 60

// ParseTimeOfDay parses "HH:MM" in 24h format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// At extracts the TimeOfDay of an instant.
func At(instant time.Time) TimeOfDay {
	return TimeOfDay(instant.Hour()*60 + instant.Minute())
}

// Window is one recurring weekly availability range for a doctor.
// Invariants: Start < End, and per (doctor, weekday) no two windows overlap.
type Window struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Weekday   time.Weekday
	Start     TimeOfDay
	End       TimeOfDay
	CreatedAt time.Time
}

// Duration is the length of the window on each recurrence.
func (w Window) Duration() time.Duration {
	return time.Duration(w.End-w.Start) * time.Minute
}

// Covers reports whether the given time of day falls inside the window,
// half-open: the End minute itself is not covered.
func (w Window) Covers(t TimeOfDay) bool {
	return w.Start <= t && t < w.End
}
