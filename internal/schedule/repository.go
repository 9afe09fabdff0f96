package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDoctor  = errors.New("doctor id is required")
	ErrWindowNotFound = errors.New("availability window not found")
	ErrInvalidRange   = errors.New("window start must be before end")
	ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")
	ErrWindowOverlap  = errors.New("window overlaps an existing window for this doctor")
)

// Repository contains all window DB interactions needed by the store and
// the query engine.
type Repository interface {
	Insert(ctx context.Context, w *Window) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)

	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error)
	ListByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]Window, error)
	ListByWeekday(ctx context.Context, weekday time.Weekday) ([]Window, error)
}
