// Package redis stores sessions in Redis with a native key expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/bentonah/fitlog/internal/domain"
)

const keyPrefix = "session:"

// SessionStore implements domain.SessionRepository.
type SessionStore struct {
	client goredis.UniversalClient
}

// NewSessionStore wraps an existing client.
func NewSessionStore(client goredis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession stores the session under session:<id> with ttl as its expiry.
func (s *SessionStore) CreateSession(ctx context.Context, session domain.Session, ttl time.Duration) error {
	body, err := json.Marshal(sessionRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.ID, body, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// GetSession returns nil for an unknown or expired id.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	body, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session := domain.Session(rec)
	return &session, nil
}

// DeleteSession removes the key. Deleting an unknown id is not an error.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
