package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/medbook/clinic-scheduler/internal/db"
	"github.com/medbook/clinic-scheduler/internal/logging"
	"github.com/medbook/clinic-scheduler/internal/schedule"
)

// Seeds availability windows for a set of synthetic doctor ids and prints
// them so the simulate tool can be pointed at real data.
func main() {
	log := logging.New("dev", "info", "seed")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	repo := schedule.NewPgRepository(pool)

	const doctorCount = 25

	for i := 0; i < doctorCount; i++ {
		doctorID := uuid.New()

		// Work 3 to 5 weekdays, Monday through Saturday
		days := gofakeit.Number(3, 5)
		used := make(map[time.Weekday]bool)
		for d := 0; d < days; d++ {
			weekday := time.Weekday(gofakeit.Number(1, 6))
			if used[weekday] {
				continue
			}
			used[weekday] = true

			startHour := gofakeit.Number(8, 10)
			lengthHours := gofakeit.Number(3, 6)

			w := &schedule.Window{
				ID:       uuid.New(),
				DoctorID: doctorID,
				Weekday:  weekday,
				Start:    schedule.TimeOfDay(startHour * 60),
				End:      schedule.TimeOfDay((startHour + lengthHours) * 60),
			}
			if err := repo.Insert(ctx, w); err != nil {
				log.Fatal().Err(err).Msg("insert window")
			}
		}

		fmt.Println(doctorID)
	}

	log.Info().Int("doctors", doctorCount).Msg("seed complete")
}
