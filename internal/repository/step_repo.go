package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

type StepRepository struct {
	pool *pgxpool.Pool
}

func NewStepRepository(pool *pgxpool.Pool) *StepRepository {
	return &StepRepository{pool: pool}
}

func (r *StepRepository) Upsert(ctx context.Context, rec model.StepRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO step_counts (user_id, step_date, steps, midnight_step_count, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, step_date) DO UPDATE
		 SET steps = EXCLUDED.steps,
		     midnight_step_count = EXCLUDED.midnight_step_count,
		     updated_at = EXCLUDED.updated_at`,
		rec.UserID, rec.Date, rec.Steps, rec.MidnightStepCount, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return model.ErrUserNotFound
		}
		return model.NewPersistenceError("upsert steps", err)
	}
	return nil
}

func (r *StepRepository) Total(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(steps), 0) FROM step_counts WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, model.NewPersistenceError("sum steps", err)
	}
	return total, nil
}

// Range returns per-day step counts for from..to inclusive. Days without a
// row are omitted.
func (r *StepRepository) Range(ctx context.Context, userID int64, from time.Time, to time.Time) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(step_date, 'YYYY-MM-DD'), steps
		 FROM step_counts
		 WHERE user_id = $1 AND step_date BETWEEN $2 AND $3`,
		userID, from, to)
	if err != nil {
		return nil, model.NewPersistenceError("query step range", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var day string
		var steps int64
		if err := rows.Scan(&day, &steps); err != nil {
			return nil, model.NewPersistenceError("scan step row", err)
		}
		out[day] = steps
	}
	return out, rows.Err()
}

// LongestStreak finds the longest run of consecutive days with steps > 0
// using the gaps-and-islands trick: date minus row_number is constant
// within a run.
func (r *StepRepository) LongestStreak(ctx context.Context, userID int64) (model.StreakResult, error) {
	result := model.StreakResult{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`WITH active AS (
		     SELECT step_date,
		            step_date - (ROW_NUMBER() OVER (ORDER BY step_date))::int AS grp
		     FROM step_counts
		     WHERE user_id = $1 AND steps > 0
		 )
		 SELECT COUNT(*)::int,
		        to_char(MIN(step_date), 'YYYY-MM-DD'),
		        to_char(MAX(step_date), 'YYYY-MM-DD')
		 FROM active
		 GROUP BY grp
		 ORDER BY COUNT(*) DESC, MAX(step_date) DESC
		 LIMIT 1`, userID).
		Scan(&result.LongestStreak, &result.StartDate, &result.EndDate)

	if errors.Is(err, pgx.ErrNoRows) {
		return result, nil
	}
	if err != nil {
		return model.StreakResult{}, model.NewPersistenceError("longest streak", err)
	}
	return result, nil
}
