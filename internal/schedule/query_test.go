package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func addWindow(t *testing.T, repo *MemoryRepository, doctor uuid.UUID, wd time.Weekday, start, end TimeOfDay) {
	t.Helper()
	err := repo.Insert(context.Background(), &Window{
		ID:       uuid.New(),
		DoctorID: doctor,
		Weekday:  wd,
		Start:    start,
		End:      end,
	})
	require.NoError(t, err)
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	q := NewQueryEngine(repo, false)
	doctor := uuid.New()

	addWindow(t, repo, doctor, time.Monday, 540, 720) // Monday 09:00-12:00

	tests := []struct {
		name    string
		instant time.Time
		want    bool
	}{
		{"inside window", monday.Add(10 * time.Hour), true},
		{"at window start", monday.Add(9 * time.Hour), true},
		{"at window end", monday.Add(12 * time.Hour), false},
		{"outside window same day", monday.Add(13 * time.Hour), false},
		{"wrong weekday", monday.AddDate(0, 0, 1).Add(10 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.IsAvailable(ctx, doctor, tt.instant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Unknown doctor is simply never available
	got, err := q.IsAvailable(ctx, uuid.New(), monday.Add(10*time.Hour))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestFindAvailableDoctors(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	q := NewQueryEngine(repo, false)

	morning := uuid.New()   // Monday 08:00-12:00
	afternoon := uuid.New() // Monday 13:00-17:00
	tuesday := uuid.New()   // Tuesday only

	addWindow(t, repo, morning, time.Monday, 480, 720)
	addWindow(t, repo, afternoon, time.Monday, 780, 1020)
	addWindow(t, repo, tuesday, time.Tuesday, 480, 720)

	t.Run("no bounds returns all doctors for the weekday", func(t *testing.T) {
		doctors, err := q.FindAvailableDoctors(ctx, monday, nil, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{morning, afternoon}, doctors)
	})

	t.Run("start bound filters to covering windows", func(t *testing.T) {
		start := TimeOfDay(540) // 09:00
		doctors, err := q.FindAvailableDoctors(ctx, monday, &start, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{morning}, doctors)
	})

	t.Run("start and end bounds require containment", func(t *testing.T) {
		start := TimeOfDay(540) // 09:00
		end := TimeOfDay(660)   // 11:00
		doctors, err := q.FindAvailableDoctors(ctx, monday, &start, &end)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{morning}, doctors)
	})

	t.Run("end bound only", func(t *testing.T) {
		end := TimeOfDay(1020) // 17:00
		doctors, err := q.FindAvailableDoctors(ctx, monday, nil, &end)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{afternoon}, doctors)
	})
}

func TestFindAvailableDoctorsLegacyFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	legacy := NewQueryEngine(repo, true)

	doctor := uuid.New()
	addWindow(t, repo, doctor, time.Monday, 480, 720) // 08:00-12:00

	start := TimeOfDay(540) // 09:00
	end := TimeOfDay(660)   // 11:00

	// Legacy semantics: window start strictly before the requested start and
	// window end strictly after the requested end.
	doctors, err := legacy.FindAvailableDoctors(ctx, monday, &start, &end)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{doctor}, doctors)

	// Exact-fit window is rejected by the legacy comparison...
	exact := TimeOfDay(480)
	exactEnd := TimeOfDay(720)
	doctors, err = legacy.FindAvailableDoctors(ctx, monday, &exact, &exactEnd)
	require.NoError(t, err)
	assert.Empty(t, doctors)

	// ...but accepted under containment semantics.
	strict := NewQueryEngine(repo, false)
	doctors, err = strict.FindAvailableDoctors(ctx, monday, &exact, &exactEnd)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{doctor}, doctors)
}

func TestTotalAvailableTime(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	q := NewQueryEngine(repo, false)
	doctor := uuid.New()

	addWindow(t, repo, doctor, time.Monday, 540, 720)   // 3h
	addWindow(t, repo, doctor, time.Monday, 780, 840)   // 1h
	addWindow(t, repo, doctor, time.Thursday, 540, 660) // 2h

	t.Run("single week", func(t *testing.T) {
		total, err := q.TotalAvailableTime(ctx, doctor, monday, monday.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.Equal(t, 6*time.Hour, total)
	})

	t.Run("partial span without matching weekdays", func(t *testing.T) {
		// Tuesday to Thursday: only Wednesday in between, Thursday excluded
		total, err := q.TotalAvailableTime(ctx, doctor, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 3))
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), total)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := q.TotalAvailableTime(ctx, doctor, monday, monday)
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = q.TotalAvailableTime(ctx, doctor, monday.AddDate(0, 0, 1), monday)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("additive over adjacent spans", func(t *testing.T) {
		a := monday
		b := monday.AddDate(0, 0, 5)
		c := monday.AddDate(0, 0, 17)

		whole, err := q.TotalAvailableTime(ctx, doctor, a, c)
		require.NoError(t, err)
		first, err := q.TotalAvailableTime(ctx, doctor, a, b)
		require.NoError(t, err)
		second, err := q.TotalAvailableTime(ctx, doctor, b, c)
		require.NoError(t, err)

		assert.Equal(t, whole, first+second)
	})
}

func TestWindowsInInterval(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	q := NewQueryEngine(repo, false)
	doctor := uuid.New()

	addWindow(t, repo, doctor, time.Monday, 540, 720)
	addWindow(t, repo, doctor, time.Wednesday, 540, 720)
	addWindow(t, repo, doctor, time.Saturday, 540, 720)

	t.Run("span covering monday to wednesday", func(t *testing.T) {
		windows, err := q.WindowsInInterval(ctx, doctor, monday, monday.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Len(t, windows, 2)
		assert.Equal(t, time.Monday, windows[0].Weekday)
		assert.Equal(t, time.Wednesday, windows[1].Weekday)
	})

	t.Run("full week returns everything", func(t *testing.T) {
		windows, err := q.WindowsInInterval(ctx, doctor, monday, monday.AddDate(0, 0, 20))
		require.NoError(t, err)
		assert.Len(t, windows, 3)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := q.WindowsInInterval(ctx, doctor, monday, monday)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
