package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a map-backed Repository used by tests. It enforces the
// same single-occupancy constraint as the partial unique index in Postgres.
type MemoryRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]Appointment
	events       []EventRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{appointments: make(map[uuid.UUID]Appointment)}
}

func (r *MemoryRepository) Create(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.appointments {
		if existing.DoctorID == a.DoctorID &&
			existing.Status != StatusCancelled &&
			existing.StartsAt.Equal(a.StartsAt) {
			return ErrSlotTaken
		}
	}

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.appointments[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, comment *string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	if comment != nil {
		a.Comment = *comment
	}
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *MemoryRepository) UpdateDetails(ctx context.Context, id uuid.UUID, startsAt time.Time, comment string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	a.StartsAt = startsAt
	a.Comment = comment
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *MemoryRepository) ListActiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool {
		return a.DoctorID == doctorID &&
			a.Status != StatusCancelled &&
			!a.StartsAt.Before(from) &&
			a.StartsAt.Before(to)
	}), nil
}

func (r *MemoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *MemoryRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *MemoryRepository) ListByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.filter(func(a Appointment) bool {
		return !a.StartsAt.Before(start) && a.StartsAt.Before(end)
	}), nil
}

func (r *MemoryRepository) ListByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool { return a.Status == status }), nil
}

func (r *MemoryRepository) CountByDoctorsBetween(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time) (int64, error) {
	set := toSet(doctorIDs)
	matched := r.filter(func(a Appointment) bool {
		_, ok := set[a.DoctorID]
		return ok && !a.StartsAt.Before(from) && a.StartsAt.Before(to)
	})
	return int64(len(matched)), nil
}

func (r *MemoryRepository) CountDistinctPatientsByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (int64, error) {
	set := toSet(doctorIDs)

	r.mu.RLock()
	defer r.mu.RUnlock()

	patients := make(map[uuid.UUID]struct{})
	for _, a := range r.appointments {
		if _, ok := set[a.DoctorID]; ok {
			patients[a.PatientID] = struct{}{}
		}
	}
	return int64(len(patients)), nil
}

func (r *MemoryRepository) FindStalePending(ctx context.Context, createdBefore time.Time) ([]Appointment, error) {
	return r.filter(func(a Appointment) bool {
		return a.Status == StatusPending && a.CreatedAt.Before(createdBefore)
	}), nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event trail, for test assertions.
func (r *MemoryRepository) Events() []EventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EventRecord, len(r.events))
	copy(out, r.events)
	return out
}

func (r *MemoryRepository) filter(keep func(Appointment) bool) []Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
