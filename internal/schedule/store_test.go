package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/clinic-scheduler/internal/lock"
	"github.com/medbook/clinic-scheduler/internal/metrics"
)

func newTestStore(t *testing.T) (*Store, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	collector := metrics.NewCollector(prometheus.NewRegistry(), "test")
	store := NewStore(repo, lock.NewKeyedMutex(), zerolog.Nop(), collector)
	return store, repo
}

func TestAddWindow(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doctor := uuid.New()

	win, err := store.AddWindow(ctx, doctor, time.Monday, 540, 720) // 09:00-12:00
	require.NoError(t, err)
	assert.Equal(t, doctor, win.DoctorID)
	assert.Equal(t, time.Monday, win.Weekday)
	assert.NotEqual(t, uuid.Nil, win.ID)
}

func TestAddWindowInvalidRange(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)
	doctor := uuid.New()

	tests := []struct {
		name       string
		start, end TimeOfDay
	}{
		{"start equals end", 540, 540},
		{"start after end", 720, 540},
		{"negative start", -10, 540},
		{"end past midnight", 540, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddWindow(ctx, doctor, time.Monday, tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}

	// Nothing was persisted
	windows, err := repo.ListByDoctor(ctx, doctor)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAddWindowInvalidArguments(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.AddWindow(ctx, uuid.Nil, time.Monday, 540, 720)
	assert.ErrorIs(t, err, ErrInvalidDoctor)

	_, err = store.AddWindow(ctx, uuid.New(), time.Weekday(7), 540, 720)
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestAddWindowOverlap(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doctor := uuid.New()

	_, err := store.AddWindow(ctx, doctor, time.Monday, 540, 720) // 09:00-12:00
	require.NoError(t, err)

	// 11:00-13:00 intersects
	_, err = store.AddWindow(ctx, doctor, time.Monday, 660, 780)
	assert.ErrorIs(t, err, ErrWindowOverlap)

	// Adjacent window starting exactly at the end is fine
	_, err = store.AddWindow(ctx, doctor, time.Monday, 720, 840)
	assert.NoError(t, err)

	// Same range on another weekday is fine
	_, err = store.AddWindow(ctx, doctor, time.Tuesday, 540, 720)
	assert.NoError(t, err)

	// Same range for another doctor is fine
	_, err = store.AddWindow(ctx, uuid.New(), time.Monday, 540, 720)
	assert.NoError(t, err)
}

func TestRemoveWindow(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doctor := uuid.New()

	win, err := store.AddWindow(ctx, doctor, time.Friday, 480, 600)
	require.NoError(t, err)

	require.NoError(t, store.RemoveWindow(ctx, win.ID))
	assert.ErrorIs(t, store.RemoveWindow(ctx, win.ID), ErrWindowNotFound)
}

func TestRemoveAllWindowsForDoctor(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	doctor := uuid.New()
	other := uuid.New()

	for _, wd := range []time.Weekday{time.Monday, time.Wednesday, time.Friday} {
		_, err := store.AddWindow(ctx, doctor, wd, 540, 720)
		require.NoError(t, err)
	}
	_, err := store.AddWindow(ctx, other, time.Monday, 540, 720)
	require.NoError(t, err)

	removed, err := store.RemoveAllWindowsForDoctor(ctx, doctor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	windows, err := store.ListWindows(ctx, doctor)
	require.NoError(t, err)
	assert.Empty(t, windows)

	// The other doctor's windows survive
	windows, err = store.ListWindows(ctx, other)
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}

// After any sequence of adds, no two persisted windows for the same
// (doctor, weekday) overlap.
func TestNoOverlapInvariantUnderConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)
	doctor := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		start := TimeOfDay(480 + i*30) // staggered, many overlapping
		wg.Add(1)
		go func(s TimeOfDay) {
			defer wg.Done()
			_, _ = store.AddWindow(ctx, doctor, time.Monday, s, s+60)
		}(start)
	}
	wg.Wait()

	windows, err := repo.ListByDoctorAndWeekday(ctx, doctor, time.Monday)
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	for i := range windows {
		for j := i + 1; j < len(windows); j++ {
			assert.False(t,
				Overlaps(windows[i].Start, windows[i].End, windows[j].Start, windows[j].End),
				"windows %s and %s overlap", windows[i].ID, windows[j].ID)
		}
	}
}
