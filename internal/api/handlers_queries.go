package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medbook/clinic-scheduler/internal/schedule"
)

const dateLayout = "2006-01-02"

func isAvailableHandler(q *schedule.QueryEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_at", "at must be RFC3339")
			return
		}

		available, err := q.IsAvailable(r.Context(), doctorID, at)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:  doctorID,
			At:        at,
			Available: available,
		})
	}
}

func findAvailableDoctorsHandler(q *schedule.QueryEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var start, end *schedule.TimeOfDay
		if s := r.URL.Query().Get("start"); s != "" {
			t, err := schedule.ParseTimeOfDay(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
				return
			}
			start = &t
		}
		if s := r.URL.Query().Get("end"); s != "" {
			t, err := schedule.ParseTimeOfDay(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end", "end must be HH:MM")
				return
			}
			end = &t
		}

		doctors, err := q.FindAvailableDoctors(r.Context(), date, start, end)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if doctors == nil {
			doctors = []uuid.UUID{}
		}

		writeJSON(w, http.StatusOK, doctors)
	}
}

func capacityHandler(q *schedule.QueryEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		total, err := q.TotalAvailableTime(r.Context(), doctorID, from, to)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CapacityResponse{
			DoctorID:     doctorID,
			TotalMinutes: int64(total.Minutes()),
		})
	}
}

func windowsInRangeHandler(q *schedule.QueryEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		from, err := parseInstant(r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC3339 or YYYY-MM-DD")
			return
		}
		to, err := parseInstant(r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be RFC3339 or YYYY-MM-DD")
			return
		}

		windows, err := q.WindowsInInterval(r.Context(), doctorID, from, to)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]WindowResponse, 0, len(windows))
		for _, win := range windows {
			resp = append(resp, toWindowResponse(win))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}
