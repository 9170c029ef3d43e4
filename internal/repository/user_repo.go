package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
	"fitsync/pkg/apierror"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const userColumns = `user_id, username, phone_number, email, COALESCE(to_char(dob, 'YYYY-MM-DD'), ''),
	height, weight, diet, password_hash, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var diet string
	err := row.Scan(&u.ID, &u.Username, &u.PhoneNumber, &u.Email, &u.DOB,
		&u.Height, &u.Weight, &diet, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	u.Diet = model.Diet(diet)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, model.NewPersistenceError("find user by id", err)
	}
	return u, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, strings.TrimSpace(phone)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, model.NewPersistenceError("find user by phone", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, phone_number, email, dob, height, weight, diet, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, '')::date, $5, $6, $7, $8, $9, $10)
		 RETURNING user_id`,
		u.Username, u.PhoneNumber, u.Email, u.DOB, u.Height, u.Weight, string(u.Diet),
		u.PasswordHash, u.CreatedAt, u.UpdatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, apierror.Conflict("phone number already registered", u.PhoneNumber)
		}
		return 0, model.NewPersistenceError("create user", err)
	}
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET username = $2, email = $3, height = $4, weight = $5, diet = $6, updated_at = $7
		 WHERE user_id = $1`,
		u.ID, u.Username, u.Email, u.Height, u.Weight, string(u.Diet), time.Now().UTC())
	if err != nil {
		return model.NewPersistenceError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SearchByName(ctx context.Context, name string, limit int) ([]model.Profile, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	return r.listProfiles(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) LIKE $1 ORDER BY username LIMIT $2`,
		pattern, limit)
}

func (r *UserRepository) List(ctx context.Context) ([]model.Profile, error) {
	return r.listProfiles(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_id`)
}

func (r *UserRepository) listProfiles(ctx context.Context, query string, args ...any) ([]model.Profile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.NewPersistenceError("list users", err)
	}
	defer rows.Close()

	users := make([]model.Profile, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, model.NewPersistenceError("scan user", err)
		}
		users = append(users, u.Profile())
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewPersistenceError("list users", err)
	}
	return users, nil
}
