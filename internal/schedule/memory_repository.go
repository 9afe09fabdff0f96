package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a map-backed Repository used by tests and the local
// dev mode of the seed tooling.
type MemoryRepository struct {
	mu      sync.RWMutex
	windows map[uuid.UUID]Window
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{windows: make(map[uuid.UUID]Window)}
}

func (r *MemoryRepository) Insert(ctx context.Context, w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[w.ID] = *w
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

func (r *MemoryRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, w := range r.windows {
		if w.DoctorID == doctorID {
			delete(r.windows, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Window
	for _, w := range r.windows {
		if w.DoctorID == doctorID {
			result = append(result, w)
		}
	}
	return result, nil
}

func (r *MemoryRepository) ListByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Window
	for _, w := range r.windows {
		if w.DoctorID == doctorID && w.Weekday == weekday {
			result = append(result, w)
		}
	}
	return result, nil
}

func (r *MemoryRepository) ListByWeekday(ctx context.Context, weekday time.Weekday) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Window
	for _, w := range r.windows {
		if w.Weekday == weekday {
			result = append(result, w)
		}
	}
	return result, nil
}
