package domain

import (
	"context"
	"time"
)

// UserRepository persists accounts. Find methods return (nil, nil) when no
// user matches. CreateUser returns ErrConflict on a duplicate username.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// RecordRepository persists exercises and measurements. Every method is
// scoped to a single owner.
type RecordRepository interface {
	CreateExercise(ctx context.Context, exercise Exercise) error
	CreateHealthMeasurement(ctx context.Context, measurement HealthMeasurement) error
	ListExercises(ctx context.Context, ownerID string, window TimeRange, limit int) ([]Exercise, error)
	ListHealthMeasurements(ctx context.Context, ownerID string, window TimeRange, limit int) ([]HealthMeasurement, error)
	JoinByOrderingKey(ctx context.Context, ownerID string) ([]JoinedRow, error)
	AggregateByOwner(ctx context.Context, ownerID string) (Aggregate, error)
}

// SessionRepository stores server-side sessions. Get returns (nil, nil) for
// an unknown id.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}
