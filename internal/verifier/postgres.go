package verifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Save(ctx context.Context, attempt model.AuthAttempt) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO oauth_attempts (attempt_id, user_id, code_verifier, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID, attempt.UserID, attempt.CodeVerifier, attempt.CreatedAt, attempt.ExpiresAt)
	if err != nil {
		return model.NewPersistenceError("store code verifier", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, attemptID string) (model.AuthAttempt, error) {
	// The column is UUID typed; anything else cannot be stored there.
	if _, err := uuid.Parse(attemptID); err != nil {
		return model.AuthAttempt{}, model.ErrVerifierNotFound
	}

	attempt := model.AuthAttempt{ID: attemptID}
	err := p.pool.QueryRow(ctx,
		`SELECT user_id, code_verifier, created_at, expires_at
		 FROM oauth_attempts
		 WHERE attempt_id = $1 AND expires_at > now()`, attemptID).
		Scan(&attempt.UserID, &attempt.CodeVerifier, &attempt.CreatedAt, &attempt.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.AuthAttempt{}, model.ErrVerifierNotFound
	}
	if err != nil {
		return model.AuthAttempt{}, model.NewPersistenceError("load code verifier", err)
	}
	return attempt, nil
}

func (p *Postgres) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM oauth_attempts WHERE expires_at <= now()`)
	if err != nil {
		return 0, model.NewPersistenceError("clean expired attempts", err)
	}
	return tag.RowsAffected(), nil
}

// StartCleanupTicker runs CleanExpired every interval until ctx is cancelled.
func (p *Postgres) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.CleanExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("verifier cleanup failed", "error", err)
				}
				continue
			}
			if removed > 0 {
				slog.Debug("expired authorization attempts removed", "count", removed)
			}
		}
	}
}
