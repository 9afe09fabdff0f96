package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("doctor already has an appointment in this slot")
)

// Repository contains all appointment DB interactions needed by the service.
type Repository interface {
	// Create inserts a new appointment. A conflicting non-cancelled row for
	// the same (doctor, instant) surfaces as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus moves id from one status to another in a single
	// conditional write; ErrAppointmentNotFound when no row matches.
	// A non-nil comment overwrites the comment field in the same write.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, comment *string) (*Appointment, error)

	// UpdateDetails overwrites the mutable fields (instant, comment).
	UpdateDetails(ctx context.Context, id uuid.UUID, startsAt time.Time, comment string) (*Appointment, error)

	// ListActiveByDoctorBetween returns non-cancelled appointments with
	// starts_at in [from, to), for conflict checks.
	ListActiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// Query accessors
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	ListByDate(ctx context.Context, day time.Time) ([]Appointment, error)
	ListByStatus(ctx context.Context, status Status) ([]Appointment, error)

	// Reporting
	CountByDoctorsBetween(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time) (int64, error)
	CountDistinctPatientsByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (int64, error)

	// Expiry worker
	FindStalePending(ctx context.Context, createdBefore time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventRecord) error
}
