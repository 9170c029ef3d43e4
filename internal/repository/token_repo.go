package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

// TokenRepository keeps one live provider token pair per user.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Put(ctx context.Context, userID int64, accessToken string, refreshToken string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO provider_tokens (user_id, access_token, refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET access_token = EXCLUDED.access_token,
		     refresh_token = EXCLUDED.refresh_token,
		     updated_at = EXCLUDED.updated_at`,
		userID, accessToken, refreshToken, now)
	if err != nil {
		return model.NewPersistenceError("store provider tokens", err)
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID int64) (model.TokenPair, error) {
	pair := model.TokenPair{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT access_token, refresh_token, updated_at
		 FROM provider_tokens WHERE user_id = $1`, userID).
		Scan(&pair.AccessToken, &pair.RefreshToken, &pair.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.TokenPair{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.TokenPair{}, model.NewPersistenceError("load provider tokens", err)
	}
	return pair, nil
}

func (r *TokenRepository) GetAccessToken(ctx context.Context, userID int64) (string, error) {
	return r.column(ctx, "access_token", userID)
}

func (r *TokenRepository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	return r.column(ctx, "refresh_token", userID)
}

func (r *TokenRepository) Delete(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM provider_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return model.NewPersistenceError("delete provider tokens", err)
	}
	return nil
}

// column is only called with the fixed column names above.
func (r *TokenRepository) column(ctx context.Context, column string, userID int64) (string, error) {
	var token string
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM provider_tokens WHERE user_id = $1`, column), userID).
		Scan(&token)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", model.NewPersistenceError("load "+column, err)
	}
	return token, nil
}
