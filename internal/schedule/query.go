package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// QueryEngine is the read side over the window store. Queries take no locks
// and tolerate slightly stale data.
type QueryEngine struct {
	repo Repository

	// legacyFilter keeps the historical "room on either side" comparison in
	// FindAvailableDoctors (window start strictly before the requested start,
	// window end strictly after the requested end) instead of containment.
	legacyFilter bool
}

func NewQueryEngine(repo Repository, legacyFilter bool) *QueryEngine {
	return &QueryEngine{repo: repo, legacyFilter: legacyFilter}
}

// IsAvailable reports whether the instant falls inside any of the doctor's
// windows for that weekday.
func (q *QueryEngine) IsAvailable(ctx context.Context, doctorID uuid.UUID, instant time.Time) (bool, error) {
	windows, err := q.repo.ListByDoctorAndWeekday(ctx, doctorID, instant.Weekday())
	if err != nil {
		return false, err
	}

	t := At(instant)
	for _, w := range windows {
		if w.Covers(t) {
			return true, nil
		}
	}
	return false, nil
}

// FindAvailableDoctors returns every doctor with at least one window on the
// date's weekday compatible with the optional time-of-day bounds. Default
// semantics require the window to contain the given bounds; legacy mode
// keeps the old strict-inequality comparison.
func (q *QueryEngine) FindAvailableDoctors(ctx context.Context, date time.Time, start, end *TimeOfDay) ([]uuid.UUID, error) {
	windows, err := q.repo.ListByWeekday(ctx, date.Weekday())
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var doctors []uuid.UUID
	for _, w := range windows {
		if !q.windowMatches(w, start, end) {
			continue
		}
		if _, ok := seen[w.DoctorID]; ok {
			continue
		}
		seen[w.DoctorID] = struct{}{}
		doctors = append(doctors, w.DoctorID)
	}

	sort.Slice(doctors, func(i, j int) bool {
		return doctors[i].String() < doctors[j].String()
	})
	return doctors, nil
}

func (q *QueryEngine) windowMatches(w Window, start, end *TimeOfDay) bool {
	if q.legacyFilter {
		if start != nil && w.Start >= *start {
			return false
		}
		if end != nil && w.End <= *end {
			return false
		}
		return true
	}

	if start != nil && (w.Start > *start || *start >= w.End) {
		return false
	}
	if end != nil && (w.End < *end || *end <= w.Start) {
		return false
	}
	return true
}

// WindowsInInterval projects the doctor's weekly windows onto the calendar
// span [start, end]: every window whose weekday occurs in the span is
// returned. Windows carry no concrete date, so this is an approximation.
func (q *QueryEngine) WindowsInInterval(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Window, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	windows, err := q.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	weekdays := weekdaysInSpan(start, end)

	var result []Window
	for _, w := range windows {
		if _, ok := weekdays[w.Weekday]; ok {
			result = append(result, w)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Weekday != result[j].Weekday {
			return result[i].Weekday < result[j].Weekday
		}
		return result[i].Start < result[j].Start
	})
	return result, nil
}

// TotalAvailableTime sums, for every calendar day in [startDate, endDate),
// the duration of every window whose weekday matches that day. This is the
// doctor's recurring capacity across the span, not actual booked time.
func (q *QueryEngine) TotalAvailableTime(ctx context.Context, doctorID uuid.UUID, startDate, endDate time.Time) (time.Duration, error) {
	if !startDate.Before(endDate) {
		return 0, ErrInvalidRange
	}

	windows, err := q.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return 0, err
	}

	perWeekday := make(map[time.Weekday]time.Duration)
	for _, w := range windows {
		perWeekday[w.Weekday] += w.Duration()
	}

	var total time.Duration
	for d := truncateToDay(startDate); d.Before(endDate); d = d.AddDate(0, 0, 1) {
		total += perWeekday[d.Weekday()]
	}
	return total, nil
}

func weekdaysInSpan(start, end time.Time) map[time.Weekday]struct{} {
	days := make(map[time.Weekday]struct{})
	last := truncateToDay(end)
	for d := truncateToDay(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		days[d.Weekday()] = struct{}{}
		if len(days) == 7 {
			break
		}
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
