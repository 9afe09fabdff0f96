package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

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

// The expiry worker cancels pending appointments that were never confirmed
// within PENDING_TTL, freeing the slot for other patients.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "expiry-worker")
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("expiry-worker starting up")

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

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connection error")
		}
		defer func() {
			if err := rabbit.Close(); err != nil {
				log.Error().Err(err).Msg("error closing rabbitmq")
			}
		}()
		publisher = rabbit
	}

	collector := metrics.NewCollector(prometheus.NewRegistry(), "expiry_worker")
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)

	windowRepo := schedule.NewPgRepository(pgPool)
	queries := schedule.NewQueryEngine(windowRepo, cfg.LegacyFilter)

	apptRepo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(apptRepo, queries, directory.AllowAll{}, locker, publisher, cfg, log, collector)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.CancelStalePending(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("expiry run error")
		return
	}
	log.Info().Int("cancelled", n).Dur("took", time.Since(start)).Msg("expiry run complete")
}
