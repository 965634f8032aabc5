// Package auth implements cookie-backed, server-side sessions and the
// middleware that gates authenticated routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/observability"
)

// Config holds session signing and cookie parameters.
type Config struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

const (
	defaultCookieName = "fitlog_session"
	defaultTTL        = 7 * 24 * time.Hour
)

// Manager starts, resolves and ends sessions.
type Manager struct {
	cfg      Config
	sessions domain.SessionRepository
	users    domain.UserRepository
	now      domain.Clock
}

// NewManager constructs a Manager. The secret must be non-empty.
func NewManager(cfg Config, sessions domain.SessionRepository, users domain.UserRepository, now domain.Clock) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if now == nil {
		now = domain.SystemClock
	}
	return &Manager{cfg: cfg, sessions: sessions, users: users, now: now}, nil
}

// Start binds subsequent requests carrying the returned cookie to user.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, user *domain.User) error {
	now := m.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}
	if err := m.sessions.CreateSession(ctx, session, m.cfg.TTL); err != nil {
		return &domain.StorageFault{Op: "create session", Err: err}
	}

	token, err := signToken(m.cfg, session.ID, user.ID, now, session.ExpiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	observability.RecordSessionStarted()
	logrus.WithField("user_id", user.ID).Info("session started")
	return nil
}

// Require resolves the user bound to the request's session. It returns
// domain.ErrUnauthenticated when there is no valid session.
func (m *Manager) Require(r *http.Request) (*domain.User, error) {
	sessionID, err := m.sessionID(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	ctx := r.Context()
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, &domain.StorageFault{Op: "get session", Err: err}
	}
	if session == nil || session.Expired(m.now()) {
		return nil, domain.ErrUnauthenticated
	}

	user, err := m.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, &domain.StorageFault{Op: "find session user", Err: err}
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// End clears the server-side session, if any, and expires the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	sessionID, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	if err := m.sessions.DeleteSession(ctx, sessionID); err != nil {
		return &domain.StorageFault{Op: "delete session", Err: err}
	}
	return nil
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", ErrMissingToken
	}
	return parseToken(m.cfg, cookie.Value, m.now())
}
