package auth

import (
	"context"

	"github.com/bentonah/fitlog/internal/domain"
)

type contextKey string

const userKey contextKey = "fitlog-auth-user"

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the user stored by WithUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok && user != nil
}
