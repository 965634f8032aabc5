package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bentonah/fitlog/internal/domain"
)

// CreateSession stores the session row. Expiry is carried by ExpiresAt; ttl is unused here.
func (r *Repository) CreateSession(ctx context.Context, session domain.Session, _ time.Duration) error {
	const stmt = `INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES ($1,$2,$3,$4)`
	if _, err := r.pool.Exec(ctx, stmt, session.ID, session.UserID, session.CreatedAt, session.ExpiresAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns nil for an unknown id.
func (r *Repository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	const query = `SELECT session_id, user_id, created_at, expires_at FROM sessions WHERE session_id = $1`

	var s domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	s.CreatedAt, s.ExpiresAt = s.CreatedAt.UTC(), s.ExpiresAt.UTC()
	return &s, nil
}

// DeleteSession removes the session. Deleting an unknown id is not an error.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired before now and reports how many were removed.
func (r *Repository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
