// Package middleware provides HTTP middlewares for session checks and logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/atinyakov/GophShop/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionSource reports the active session.
type SessionSource interface {
	User() (models.User, bool)
}

// RequireSession rejects requests with 401 when no user is logged in.
// Otherwise the session user is stored in the request context, so it can be
// read downstream with UserFromContext.
func RequireSession(src SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := src.User()
			if !ok {
				http.Error(w, "please login first", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by RequireSession.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
