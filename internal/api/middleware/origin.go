package middleware

import (
	"net/http"

	"github.com/mcoot/xrkiosk/internal/dependencies/origin"
)

// Origin stores the client address in the request context for signature metadata
func Origin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := origin.WithAddress(r.Context(), origin.FromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
