package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanWindow(row pgx.Row) (*Window, error) {
	var w Window
	var weekday int16
	var start, end int16

	err := row.Scan(
		&w.ID,
		&w.DoctorID,
		&weekday,
		&start,
		&end,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Weekday = time.Weekday(weekday)
	w.Start = TimeOfDay(start)
	w.End = TimeOfDay(end)
	return &w, nil
}

func (r *PgRepository) Insert(ctx context.Context, w *Window) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_windows (id, doctor_id, weekday, start_min, end_min, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, w.ID, w.DoctorID, int16(w.Weekday), int16(w.Start), int16(w.End))
	return err
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_min, end_min, created_at
		FROM availability_windows
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func (r *PgRepository) ListByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_min, end_min, created_at
		FROM availability_windows
		WHERE doctor_id = $1 AND weekday = $2
	`, doctorID, int16(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func (r *PgRepository) ListByWeekday(ctx context.Context, weekday time.Weekday) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_min, end_min, created_at
		FROM availability_windows
		WHERE weekday = $1
	`, int16(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]Window, error) {
	var result []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
