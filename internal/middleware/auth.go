package middleware

import (
	"context"
	"net/http"

	"github.com/Dan9191/microfund/internal/respond"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userIDKey contextKey = "user_id"

// IdentityResolver extracts the caller's identity from a request
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (uuid.UUID, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's id in the request context.
func AuthMiddleware(resolver IdentityResolver, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.ResolveIdentity(r)
			if err != nil {
				respond.Error(log, w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id stored by AuthMiddleware
func UserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
