package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/medbook/clinic-scheduler/internal/api"
	"github.com/medbook/clinic-scheduler/internal/appointment"
	"github.com/medbook/clinic-scheduler/internal/config"
	"github.com/medbook/clinic-scheduler/internal/db"
	"github.com/medbook/clinic-scheduler/internal/directory"
	"github.com/medbook/clinic-scheduler/internal/events"
	"github.com/medbook/clinic-scheduler/internal/logging"
	"github.com/medbook/clinic-scheduler/internal/metrics"
	redisclient "github.com/medbook/clinic-scheduler/internal/redis"
	"github.com/medbook/clinic-scheduler/internal/schedule"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "scheduler-server")
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("scheduler-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	var publisher events.Publisher = events.NopPublisher{}
	var rabbit *events.RabbitMQPublisher
	if cfg.AMQPURL != "" {
		rabbit, err = events.NewRabbitMQPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connection error")
		}
		defer func() {
			if err := rabbit.Close(); err != nil {
				log.Error().Err(err).Msg("error closing rabbitmq")
			}
		}()
		publisher = rabbit
		log.Info().Msg("connected to RabbitMQ")
	} else {
		log.Warn().Msg("AMQP_URL not set, event publishing disabled")
	}

	var dir directory.Client = directory.AllowAll{}
	if cfg.DirectoryURL != "" {
		dir = directory.NewHTTPClient(cfg.DirectoryURL)
	} else {
		log.Warn().Msg("DIRECTORY_URL not set, doctor/patient existence checks disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry, "scheduler")

	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)

	windowRepo := schedule.NewPgRepository(pgPool)
	windowStore := schedule.NewStore(windowRepo, locker, log, collector)
	queries := schedule.NewQueryEngine(windowRepo, cfg.LegacyFilter)

	apptRepo := appointment.NewPgRepository(pgPool)
	bookingSvc := appointment.NewService(apptRepo, queries, dir, locker, publisher, cfg, log, collector)

	router := api.NewRouter(api.RouterConfig{
		Windows:      windowStore,
		Queries:      queries,
		Appointments: bookingSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Rabbit:       rabbit,
		Logger:       log,
		Metrics:      collector,
		Registry:     registry,
		Env:          cfg.Env,
		Version:      version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("scheduler-server stopped")
}
