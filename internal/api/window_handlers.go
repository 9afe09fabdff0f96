package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medbook/clinic-scheduler/internal/schedule"
)

func createWindowHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := schedule.ParseTimeOfDay(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
			return
		}
		end, err := schedule.ParseTimeOfDay(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be HH:MM")
			return
		}

		win, err := store.AddWindow(r.Context(), doctorID, time.Weekday(req.Weekday), start, end)
		if err != nil {
			handleWindowError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(*win))
	}
}

func listWindowsHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		windows, err := store.ListWindows(r.Context(), doctorID)
		if err != nil {
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

func removeWindowHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windowID, err := uuid.Parse(chi.URLParam(r, "windowID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "windowID must be a valid UUID")
			return
		}

		if err := store.RemoveWindow(r.Context(), windowID); err != nil {
			handleWindowError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func removeDoctorWindowsHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		if _, err := store.RemoveAllWindowsForDoctor(r.Context(), doctorID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleWindowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, schedule.ErrInvalidWeekday), errors.Is(err, schedule.ErrInvalidDoctor):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, schedule.ErrWindowOverlap):
		writeError(w, http.StatusConflict, "window_overlap", err.Error())
	case errors.Is(err, schedule.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
