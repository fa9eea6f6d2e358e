package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/xrkiosk/internal/middleware"
)

// HealthPath is logged at debug level so probes do not flood the access log
const HealthPath = "/api/v1/health"

// Logging creates access logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger, HealthPath)
}
