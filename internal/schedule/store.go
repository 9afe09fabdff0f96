package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/clinic-scheduler/internal/lock"
	"github.com/medbook/clinic-scheduler/internal/metrics"
)

// Store owns the recurring weekly availability windows. Window creation runs
// its overlap check inside the per-doctor lock so two concurrent AddWindow
// calls for the same doctor cannot both pass validation and both insert.
type Store struct {
	repo    Repository
	locker  lock.Locker
	log     zerolog.Logger
	metrics *metrics.Collector
}

func NewStore(repo Repository, locker lock.Locker, log zerolog.Logger, m *metrics.Collector) *Store {
	return &Store{
		repo:    repo,
		locker:  locker,
		log:     log,
		metrics: m,
	}
}

const addWindowAttempts = 3

// AddWindow validates and persists a new weekly window for the doctor.
// Fails with ErrInvalidRange when start >= end, ErrWindowOverlap when the
// range intersects an existing window on the same weekday.
func (s *Store) AddWindow(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, start, end TimeOfDay) (*Window, error) {
	if doctorID == uuid.Nil {
		return nil, ErrInvalidDoctor
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, ErrInvalidWeekday
	}
	if !start.Valid() || !end.Valid() || start >= end {
		return nil, ErrInvalidRange
	}

	var created *Window
	var err error

	for attempt := 0; attempt < addWindowAttempts; attempt++ {
		err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
			existing, listErr := s.repo.ListByDoctorAndWeekday(lockCtx, doctorID, weekday)
			if listErr != nil {
				return fmt.Errorf("list windows: %w", listErr)
			}
			for _, w := range existing {
				if Overlaps(start, end, w.Start, w.End) {
					return ErrWindowOverlap
				}
			}

			w := &Window{
				ID:       uuid.New(),
				DoctorID: doctorID,
				Weekday:  weekday,
				Start:    start,
				End:      end,
			}
			if insErr := s.repo.Insert(lockCtx, w); insErr != nil {
				return fmt.Errorf("insert window: %w", insErr)
			}

			created = w
			return nil
		})

		if !errors.Is(err, lock.ErrNotAcquired) {
			break
		}
		s.metrics.LockContention.Inc()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrWindowOverlap) {
			outcome = "overlap"
		}
		s.metrics.WindowsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	s.metrics.WindowsTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Str("window_id", created.ID.String()).
		Int("weekday", int(weekday)).
		Str("start", start.String()).
		Str("end", end.String()).
		Msg("availability window created")

	return created, nil
}

// RemoveWindow deletes a single window, ErrWindowNotFound when absent.
func (s *Store) RemoveWindow(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("window_id", id.String()).Msg("availability window removed")
	return nil
}

// RemoveAllWindowsForDoctor bulk-deletes every window the doctor owns,
// used when a doctor is detached from a clinic.
func (s *Store) RemoveAllWindowsForDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteByDoctor(ctx, doctorID)
	if err != nil {
		return 0, fmt.Errorf("delete windows for doctor: %w", err)
	}
	s.log.Info().Str("doctor_id", doctorID.String()).Int64("removed", n).Msg("doctor windows removed")
	return n, nil
}

// ListWindows returns the doctor's windows, unordered.
func (s *Store) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}
