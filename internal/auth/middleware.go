package auth

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/bentonah/fitlog/internal/domain"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// PublicPaths lets the login flow, health checks and metrics through the gate.
func PublicPaths(paths ...string) Skipper {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

// Middleware redirects requests without a valid session to the login page.
type Middleware struct {
	manager   *Manager
	skipper   Skipper
	loginPath string
}

// NewMiddleware constructs a Middleware redirecting to loginPath.
func NewMiddleware(manager *Manager, loginPath string, skipper Skipper) Middleware {
	return Middleware{manager: manager, skipper: skipper, loginPath: loginPath}
}

// Wrap attaches session enforcement to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper != nil && m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.manager.Require(r)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				target := m.loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			logrus.WithError(err).WithField("path", r.URL.Path).Error("session lookup failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
