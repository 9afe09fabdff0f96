package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/clinic-scheduler/internal/config"
	"github.com/medbook/clinic-scheduler/internal/directory"
	"github.com/medbook/clinic-scheduler/internal/events"
	"github.com/medbook/clinic-scheduler/internal/lock"
	"github.com/medbook/clinic-scheduler/internal/metrics"
	"github.com/medbook/clinic-scheduler/internal/schedule"
)

// Event names are part of the contract with the notification and billing
// consumers; do not rename.
const (
	EventCreated           = "appointment-created"
	EventConfirmed         = "appointment-confirmed"
	EventCancelled         = "appointment-cancelled"
	EventCancelledByDoctor = "appointment-cancelled-by-doctor"
	EventUpdated           = "appointment-updated"
)

var (
	ErrInvalidArgument     = errors.New("patient id and doctor id are required")
	ErrReasonRequired      = errors.New("cancellation reason is required")
	ErrOutsideAvailability = errors.New("requested instant is outside the doctor's availability")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorBusy          = errors.New("doctor schedule is being modified, please retry")
)

// Availability is the slice of the schedule query engine the booking service
// consults: is the requested instant inside one of the doctor's windows?
type Availability interface {
	IsAvailable(ctx context.Context, doctorID uuid.UUID, instant time.Time) (bool, error)
}

// Service validates and executes every appointment state change. All writes
// for a doctor run under the per-doctor lock so concurrent bookings cannot
// both pass the conflict check; the partial unique index in Postgres is the
// backstop behind the lock.
type Service struct {
	repo      Repository
	avail     Availability
	dir       directory.Client
	locker    lock.Locker
	publisher events.Publisher
	cfg       config.Config
	log       zerolog.Logger
	metrics   *metrics.Collector
}

func NewService(
	repo Repository,
	avail Availability,
	dir directory.Client,
	locker lock.Locker,
	publisher events.Publisher,
	cfg config.Config,
	log zerolog.Logger,
	m *metrics.Collector,
) *Service {
	return &Service{
		repo:      repo,
		avail:     avail,
		dir:       dir,
		locker:    locker,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		metrics:   m,
	}
}

const bookAttempts = 3

// Book reserves the slot at the given instant for the patient. The booking
// enters in pending status and an appointment-created event is emitted.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, startsAt time.Time) (*Appointment, error) {
	if patientID == uuid.Nil || doctorID == uuid.Nil {
		s.metrics.BookingsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidArgument
	}

	if err := s.checkIdentities(ctx, patientID, doctorID); err != nil {
		s.metrics.BookingsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var created *Appointment
	var err error

	for attempt := 0; attempt < bookAttempts; attempt++ {
		err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
			ok, availErr := s.avail.IsAvailable(lockCtx, doctorID, startsAt)
			if availErr != nil {
				return fmt.Errorf("check availability: %w", availErr)
			}
			if !ok {
				return ErrOutsideAvailability
			}

			taken, confErr := s.slotTaken(lockCtx, doctorID, startsAt)
			if confErr != nil {
				return fmt.Errorf("check conflicts: %w", confErr)
			}
			if taken {
				return ErrSlotTaken
			}

			appt := &Appointment{
				ID:        uuid.New(),
				PatientID: patientID,
				DoctorID:  doctorID,
				StartsAt:  startsAt,
				Status:    StatusPending,
			}
			if createErr := s.repo.Create(lockCtx, appt); createErr != nil {
				return fmt.Errorf("create appointment: %w", createErr)
			}

			created = appt
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
		switch {
		case errors.Is(err, ErrOutsideAvailability):
			s.metrics.BookingsTotal.WithLabelValues("outside_availability").Inc()
		case errors.Is(err, ErrSlotTaken):
			s.metrics.BookingsTotal.WithLabelValues("slot_taken").Inc()
		case errors.Is(err, lock.ErrNotAcquired):
			s.metrics.BookingsTotal.WithLabelValues("contention").Inc()
			return nil, ErrDoctorBusy
		default:
			s.metrics.BookingsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()
	s.emit(ctx, EventCreated, created)

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("patient_id", patientID.String()).
		Time("starts_at", startsAt).
		Msg("appointment booked")

	return created, nil
}

// slotTaken applies interval overlap with the clinic-wide slot duration, so
// an offset booking inside an occupied slot conflicts too, not only an
// exact-timestamp match.
func (s *Service) slotTaken(ctx context.Context, doctorID uuid.UUID, startsAt time.Time) (bool, error) {
	d := s.cfg.SlotDuration
	existing, err := s.repo.ListActiveByDoctorBetween(ctx, doctorID, startsAt.Add(-d), startsAt.Add(d))
	if err != nil {
		return false, err
	}

	for _, a := range existing {
		if schedule.InstantsOverlap(startsAt, startsAt.Add(d), a.StartsAt, a.StartsAt.Add(d)) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) checkIdentities(ctx context.Context, patientID, doctorID uuid.UUID) error {
	ok, err := s.dir.DoctorExists(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("verify doctor: %w", err)
	}
	if !ok {
		return ErrDoctorNotFound
	}

	ok, err = s.dir.PatientExists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("verify patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

// Confirm moves a pending appointment to confirmed via doctor action.
// Confirming an already confirmed appointment is an idempotent success;
// confirming a cancelled one fails.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusConfirmed {
		return appt, nil
	}
	if !appt.CanTransitionTo(StatusConfirmed) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusConfirmed, nil)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition since the read above.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.emit(ctx, EventConfirmed, updated)
	s.log.Info().Str("appointment_id", id.String()).Msg("appointment confirmed")

	return updated, nil
}

// CancelByPatient cancels a pending or confirmed appointment, no reason
// recorded. Cancelling an already cancelled appointment fails.
func (s *Service) CancelByPatient(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.cancel(ctx, id, nil, EventCancelled)
}

// CancelByDoctor cancels on the doctor's behalf; the reason is mandatory and
// is stored in the comment field.
func (s *Service) CancelByDoctor(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.cancel(ctx, id, &reason, EventCancelledByDoctor)
}

func (s *Service) cancel(ctx context.Context, id uuid.UUID, reason *string, eventType string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled, reason)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.emit(ctx, eventType, updated)
	s.log.Info().Str("appointment_id", id.String()).Str("event", eventType).Msg("appointment cancelled")

	return updated, nil
}

// Update overwrites the mutable fields (instant, comment). Availability
// window membership is not re-validated here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, startsAt time.Time, comment string) (*Appointment, error) {
	updated, err := s.repo.UpdateDetails(ctx, id, startsAt, comment)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, EventUpdated, updated)
	s.log.Info().Str("appointment_id", id.String()).Msg("appointment updated")

	return updated, nil
}

// CancelStalePending cancels pending appointments that were never confirmed
// within the configured TTL. Called periodically by the expiry worker.
func (s *Service) CancelStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.PendingTTL)

	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale pending appointments: %w", err)
	}

	reason := "not confirmed in time"
	cancelled := 0
	for _, appt := range stale {
		updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusCancelled, &reason)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to cancel stale appointment")
			continue
		}
		cancelled++
		s.emit(ctx, EventCancelled, updated)
	}

	return cancelled, nil
}

// Query accessors

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	return s.repo.ListByDate(ctx, day)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) CountByDoctorsBetween(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time) (int64, error) {
	return s.repo.CountByDoctorsBetween(ctx, doctorIDs, from, to)
}

func (s *Service) CountDistinctPatientsByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (int64, error) {
	return s.repo.CountDistinctPatientsByDoctors(ctx, doctorIDs)
}

// Snapshot is the event payload: the full appointment at transition time.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartsAt  time.Time `json:"starts_at"`
	Status    Status    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func snapshotOf(a *Appointment) Snapshot {
	return Snapshot{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		StartsAt:  a.StartsAt,
		Status:    a.Status,
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// emit records the event locally and publishes it to the messaging
// collaborator. Neither failure rolls back the triggering write.
func (s *Service) emit(ctx context.Context, eventType string, appt *Appointment) {
	snap := snapshotOf(appt)

	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		payload = nil
	}

	apptID := appt.ID
	rec := EventRecord{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.InsertEvent(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Str("appointment_id", appt.ID.String()).
			Msg("failed to record event")
	}

	if err := s.publisher.Publish(ctx, eventType, snap); err != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		s.log.Error().Err(err).Str("event", eventType).Str("appointment_id", appt.ID.String()).
			Msg("failed to publish event")
		return
	}
	s.metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}
