package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bentonah/fitlog/internal/auth"
	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/persistence/memory"
)

const testSecret = "test-secret"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newManager(t *testing.T, clock *fakeClock) (*auth.Manager, *memory.Repository, *domain.User) {
	t.Helper()

	repo := memory.NewRepository()
	creds := domain.NewCredentialService(repo, bcrypt.MinCost, clock.Now)
	user, err := creds.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	manager, err := auth.NewManager(auth.Config{
		Secret: testSecret,
		Issuer: "fitlog-test",
		TTL:    time.Hour,
	}, repo, repo, clock.Now)
	require.NoError(t, err)
	return manager, repo, user
}

// login starts a session and returns the cookie the browser would send back.
func login(t *testing.T, manager *auth.Manager, user *domain.User) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, manager.Start(context.Background(), rec, user))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].HttpOnly)
	return cookies[0]
}

func TestNewManagerRequiresSecret(t *testing.T) {
	repo := memory.NewRepository()
	_, err := auth.NewManager(auth.Config{}, repo, repo, nil)
	require.Error(t, err)
}

func TestStartThenRequireResolvesUser(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, user := newManager(t, clock)

	cookie := login(t, manager, user)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	got, err := manager.Require(req)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, "alice", got.Username)
}

func TestRequireWithoutCookie(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, _ := newManager(t, clock)

	_, err := manager.Require(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRequireRejectsTamperedToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, user := newManager(t, clock)

	cookie := login(t, manager, user)
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := manager.Require(req)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRequireRejectsExpiredSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, user := newManager(t, clock)

	cookie := login(t, manager, user)
	clock.now = clock.now.Add(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := manager.Require(req)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEndDeletesSessionAndExpiresCookie(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, user := newManager(t, clock)

	cookie := login(t, manager, user)

	logoutReq := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logoutReq.AddCookie(cookie)
	rec := httptest.NewRecorder()
	require.NoError(t, manager.End(context.Background(), rec, logoutReq))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)

	// The old cookie must no longer resolve even though its signature is valid.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := manager.Require(req)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEndWithoutSessionStillClearsCookie(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, _ := newManager(t, clock)

	rec := httptest.NewRecorder()
	require.NoError(t, manager.End(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/logout", nil)))
	require.Len(t, rec.Result().Cookies(), 1)
}
