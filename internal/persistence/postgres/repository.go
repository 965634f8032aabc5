// Package postgres provides pgx-backed persistence for users, records and sessions.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the domain user, record and session repositories.
type Repository struct {
	pool   *pgxpool.Pool
	outbox bool
}

// Option customises a Repository.
type Option func(*Repository)

// WithEventOutbox stages a logged event in the outbox table for every record created.
func WithEventOutbox() Option {
	return func(r *Repository) { r.outbox = true }
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// withOwnerTx runs fn in a transaction whose row-level-security scope is ownerID.
func (r *Repository) withOwnerTx(ctx context.Context, ownerID string, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.owner_id', $1, true)", ownerID); err != nil {
		return fmt.Errorf("set owner scope: %w", err)
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
