package handler

import (
	"net/http"

	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/services/kiosk"
)

// HealthHandler reports liveness
type HealthHandler struct {
	kiosks *kiosk.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(kiosks *kiosk.Registry) *HealthHandler {
	return &HealthHandler{kiosks: kiosks}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	registrations, staffSessions := h.kiosks.Len()
	response.JSON(w, http.StatusOK, response.Health{
		Status:        "ok",
		Registrations: registrations,
		StaffSessions: staffSessions,
	})
}
