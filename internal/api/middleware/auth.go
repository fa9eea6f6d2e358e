package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/xrkiosk/internal/api/apierr"
	"github.com/mcoot/xrkiosk/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// StaffAuth requires a valid staff bearer token. When no staff PIN is
// configured every request is let through.
func StaffAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// EventSource and image tags cannot set headers, so they pass the token in the query
	return r.URL.Query().Get("token")
}

// GetSession returns the staff session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}
