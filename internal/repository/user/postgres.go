package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, full_name, phone, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, u domain.User) (*domain.User, error) {
	const stmt = `
INSERT INTO users (email, password_hash, full_name, phone)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	created, err := scanUser(q.QueryRow(ctx, stmt, strings.ToLower(u.Email), u.PasswordHash, u.FullName, u.Phone))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: create email=%s error=%v", u.Email, err)
		return nil, err
	}
	r.logger.Printf("user repo: created id=%d", created.ID)
	return created, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.fetch(ctx, q, strings.TrimSpace(email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.fetch(ctx, q, id)
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*domain.User, error) {
	const q = `
UPDATE users
SET full_name = COALESCE($2, full_name),
    phone = COALESCE($3, phone),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns
	return r.fetch(ctx, q, id, in.FullName, in.Phone)
}

func (r *postgresRepo) fetch(ctx context.Context, q string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("user repo: fetch error=%v", err)
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
