package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medbook/clinic-scheduler/internal/appointment"
	"github.com/medbook/clinic-scheduler/internal/events"
	"github.com/medbook/clinic-scheduler/internal/metrics"
	"github.com/medbook/clinic-scheduler/internal/schedule"
)

type RouterConfig struct {
	Windows      *schedule.Store
	Queries      *schedule.QueryEngine
	Appointments *appointment.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Rabbit       *events.RabbitMQPublisher
	Logger       zerolog.Logger
	Metrics      *metrics.Collector
	Registry     *prometheus.Registry
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Rabbit, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Registry))

	// Availability windows
	r.Post("/doctors/{doctorID}/windows", createWindowHandler(cfg.Windows))
	r.Get("/doctors/{doctorID}/windows", listWindowsHandler(cfg.Windows))
	r.Delete("/doctors/{doctorID}/windows", removeDoctorWindowsHandler(cfg.Windows))
	r.Delete("/windows/{windowID}", removeWindowHandler(cfg.Windows))

	// Availability queries
	r.Get("/doctors/available", findAvailableDoctorsHandler(cfg.Queries))
	r.Get("/doctors/{doctorID}/availability", isAvailableHandler(cfg.Queries))
	r.Get("/doctors/{doctorID}/capacity", capacityHandler(cfg.Queries))
	r.Get("/doctors/{doctorID}/windows/in-range", windowsInRangeHandler(cfg.Queries))

	// Appointments
	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/cancel", cancelByPatientHandler(cfg.Appointments))
	r.Post("/appointments/{id}/cancel-by-doctor", cancelByDoctorHandler(cfg.Appointments))

	// Reporting
	r.Get("/reports/appointments/count", countAppointmentsHandler(cfg.Appointments))
	r.Get("/reports/appointments/distinct-patients", distinctPatientsHandler(cfg.Appointments))

	return r
}
