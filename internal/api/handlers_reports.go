package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medbook/clinic-scheduler/internal/appointment"
)

func countAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorIDs, err := parseDoctorIDs(r.URL.Query().Get("doctor_ids"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_ids", "doctor_ids must be comma-separated UUIDs")
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
		if !from.Before(to) {
			writeError(w, http.StatusBadRequest, "invalid_range", "from must be before to")
			return
		}

		n, err := svc.CountByDoctorsBetween(r.Context(), doctorIDs, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CountResponse{Count: n})
	}
}

func distinctPatientsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorIDs, err := parseDoctorIDs(r.URL.Query().Get("doctor_ids"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_ids", "doctor_ids must be comma-separated UUIDs")
			return
		}

		n, err := svc.CountDistinctPatientsByDoctors(r.Context(), doctorIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CountResponse{Count: n})
	}
}

func parseDoctorIDs(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
