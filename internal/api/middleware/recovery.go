package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/xrkiosk/internal/api/apierr"
	"github.com/mcoot/xrkiosk/internal/middleware"
)

// Recovery turns handler panics into the API's JSON internal error
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
