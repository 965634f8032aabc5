package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bentonah/fitlog/internal/auth"
)

func TestMiddlewareRedirectsAnonymousToLogin(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, _ := newManager(t, clock)

	called := false
	mw := auth.NewMiddleware(manager, "/login", auth.PublicPaths("/login"))
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.False(t, called)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2F", rec.Header().Get("Location"))
}

func TestMiddlewareInjectsUser(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, user := newManager(t, clock)
	cookie := login(t, manager, user)

	var seen string
	mw := auth.NewMiddleware(manager, "/login", nil)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		require.True(t, ok)
		seen = u.ID
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/exercise_health_summary", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, user.ID, seen)
}

func TestMiddlewareSkipsPublicPaths(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	manager, _, _ := newManager(t, clock)

	mw := auth.NewMiddleware(manager, "/login", auth.PublicPaths("/login", "/healthz"))
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := auth.UserFromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
