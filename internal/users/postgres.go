package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peterphenikaa/zen8labs-auth/internal/models"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// PostgresUserRepository implements UserRepository on a pgx pool.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository opens a pool and pings it.
func NewPostgresUserRepository(ctx context.Context, dbURL string) (*PostgresUserRepository, error) {
	const op = "users.postgres.New"

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &PostgresUserRepository{db: pool}, nil
}

// Migrate creates the users table when missing.
func (r *PostgresUserRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("users.postgres.Migrate: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) Close() { r.db.Close() }

func (r *PostgresUserRepository) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`
	return r.scanOne(ctx, "users.postgres.FindByEmail", q, email)
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`
	return r.scanOne(ctx, "users.postgres.FindByID", q, id)
}

func (r *PostgresUserRepository) scanOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	const (
		op = "users.postgres.Create"
		q  = `INSERT INTO users (id, email, name, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	)

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.db.Exec(ctx, q, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
