package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medbook/clinic-scheduler/internal/db"
	"github.com/medbook/clinic-scheduler/internal/logging"
)

// Load generator for the booking path. Many workers race to book a small set
// of (doctor, instant) slots; the run fails when more than one booking
// succeeds for the same slot, i.e. the single-occupancy invariant broke.

type outcome struct {
	Total    int64
	Booked   int64
	Conflict int64
	Rejected int64
	Errors   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (o *outcome) record(latency time.Duration, status int) {
	atomic.AddInt64(&o.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&o.Booked, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&o.Conflict, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&o.Rejected, 1)
	default:
		atomic.AddInt64(&o.Errors, 1)
	}

	o.mu.Lock()
	o.latencies = append(o.latencies, latency)
	o.mu.Unlock()
}

func (o *outcome) percentile(p float64) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(o.latencies))
	copy(sorted, o.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "scheduler API base URL")
		workers  = flag.Int("workers", 20, "concurrent workers")
		duration = flag.Duration("duration", 10*time.Second, "how long to run")
		slots    = flag.Int("slots", 10, "distinct (doctor, instant) slots to fight over")
	)
	flag.Parse()

	log := logging.New("dev", "info", "simulate")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required to discover seeded doctors")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration+30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	targets, err := buildTargets(ctx, pool, *slots)
	if err != nil {
		log.Fatal().Err(err).Msg("derive bookable slots")
	}
	if len(targets) == 0 {
		log.Fatal().Msg("no bookable slots derived from seeded windows, run cmd/seed first")
	}
	log.Info().Int("slots", len(targets)).Int("workers", *workers).
		Msg("starting booking storm")

	gofakeit.Seed(time.Now().UnixNano())

	var res outcome
	deadline := time.Now().Add(*duration)
	client := &http.Client{Timeout: 5 * time.Second}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				t := targets[rand.Intn(len(targets))]
				status, latency := book(ctx, client, *baseURL, t)
				res.record(latency, status)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("\ntotal=%d booked=%d conflict=%d rejected=%d errors=%d\n",
		res.Total, res.Booked, res.Conflict, res.Rejected, res.Errors)
	fmt.Printf("latency p50=%s p95=%s\n", res.percentile(0.50), res.percentile(0.95))

	if res.Booked > int64(len(targets)) {
		log.Fatal().Int64("booked", res.Booked).Int("slots", len(targets)).
			Msg("INVARIANT VIOLATED: more bookings than distinct slots")
	}
	log.Info().Msg("single-occupancy invariant held")
}

type target struct {
	doctorID uuid.UUID
	startsAt time.Time
}

// buildTargets turns seeded windows into concrete future instants: the next
// occurrence of each window's weekday at the window's start time.
func buildTargets(ctx context.Context, pool *pgxpool.Pool, slots int) ([]target, error) {
	rows, err := pool.Query(ctx, `
		SELECT doctor_id, weekday, start_min
		FROM availability_windows
		ORDER BY doctor_id
		LIMIT $1
	`, slots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	var targets []target
	for rows.Next() {
		var doctorID uuid.UUID
		var weekday, startMin int16
		if err := rows.Scan(&doctorID, &weekday, &startMin); err != nil {
			return nil, err
		}

		daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		day := now.AddDate(0, 0, daysAhead)
		startsAt := time.Date(day.Year(), day.Month(), day.Day(),
			int(startMin)/60, int(startMin)%60, 0, 0, time.Local)

		targets = append(targets, target{doctorID: doctorID, startsAt: startsAt})
	}
	return targets, rows.Err()
}

func book(ctx context.Context, client *http.Client, baseURL string, t target) (int, time.Duration) {
	body, _ := json.Marshal(map[string]string{
		"patient_id": gofakeit.UUID(),
		"doctor_id":  t.doctorID.String(),
		"starts_at":  t.startsAt.Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, 0
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency
}
