package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bentonah/fitlog/internal/domain"
)

const uniqueViolation = "23505"

// CreateUser inserts a user. A duplicate username yields domain.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	const stmt = `INSERT INTO users (user_id, username, password_hash, created_at) VALUES ($1,$2,$3,$4)`

	_, err := r.pool.Exec(ctx, stmt, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindUserByUsername returns nil when no user has username.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT user_id, username, password_hash, created_at FROM users WHERE username = $1`
	return r.findUser(ctx, query, username)
}

// FindUserByID returns nil when no user has id.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT user_id, username, password_hash, created_at FROM users WHERE user_id = $1`
	return r.findUser(ctx, query, id)
}

func (r *Repository) findUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
