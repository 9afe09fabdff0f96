package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/clinic-scheduler/internal/schedule"
)

type CreateWindowRequest struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type WindowResponse struct {
	ID       uuid.UUID `json:"id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	Weekday  int       `json:"weekday"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
}

func toWindowResponse(w schedule.Window) WindowResponse {
	return WindowResponse{
		ID:       w.ID,
		DoctorID: w.DoctorID,
		Weekday:  int(w.Weekday),
		Start:    w.Start.String(),
		End:      w.End.String(),
	}
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	At        time.Time `json:"at"`
	Available bool      `json:"available"`
}

type CapacityResponse struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	TotalMinutes int64     `json:"total_minutes"`
}

type BookAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	StartsAt  string `json:"starts_at"`
}

type CancelByDoctorRequest struct {
	Reason string `json:"reason"`
}

type UpdateAppointmentRequest struct {
	StartsAt string `json:"starts_at"`
	Comment  string `json:"comment"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartsAt  time.Time `json:"starts_at"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
