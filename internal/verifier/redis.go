package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fitsync/internal/model"
)

const redisKeyPrefix = "oauth:attempt:"

type Redis struct {
	rdb *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	return &Redis{rdb: redis.NewClient(opts)}, nil
}

func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

type redisEntry struct {
	UserID       int64     `json:"user_id"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (r *Redis) Save(ctx context.Context, attempt model.AuthAttempt) error {
	ttl := time.Until(attempt.ExpiresAt)
	if ttl <= 0 {
		return model.NewPersistenceError("store code verifier", errors.New("attempt already expired"))
	}

	payload, err := json.Marshal(redisEntry{
		UserID:       attempt.UserID,
		CodeVerifier: attempt.CodeVerifier,
		CreatedAt:    attempt.CreatedAt,
		ExpiresAt:    attempt.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("serialize attempt: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, redisKeyPrefix+attempt.ID, payload, ttl).Result()
	if err != nil {
		return model.NewPersistenceError("store code verifier", err)
	}
	if !ok {
		return model.NewPersistenceError("store code verifier", errors.New("attempt id already in use"))
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, attemptID string) (model.AuthAttempt, error) {
	val, err := r.rdb.Get(ctx, redisKeyPrefix+attemptID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.AuthAttempt{}, model.ErrVerifierNotFound
	}
	if err != nil {
		return model.AuthAttempt{}, model.NewPersistenceError("load code verifier", err)
	}

	var entry redisEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return model.AuthAttempt{}, model.NewPersistenceError("decode code verifier", err)
	}

	return model.AuthAttempt{
		ID:           attemptID,
		UserID:       entry.UserID,
		CodeVerifier: entry.CodeVerifier,
		CreatedAt:    entry.CreatedAt,
		ExpiresAt:    entry.ExpiresAt,
	}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
