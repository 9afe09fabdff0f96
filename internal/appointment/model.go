package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Transitions: pending -> confirmed (doctor action), pending/confirmed ->
// cancelled (patient action, or doctor action with a reason stored in
// Comment). Cancelled is terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// Appointment binds one patient to one doctor at one instant. The instant is
// the slot start; the effective slot length is the clinic-wide configured
// duration, there is no per-appointment duration field.
type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	StartsAt  time.Time
	Status    Status
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) CanTransitionTo(next Status) bool {
	for _, s := range allowedTransitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// EventRecord is one row of the local schedule_events audit trail, written
// alongside the AMQP publish.
type EventRecord struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
