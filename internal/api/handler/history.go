package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/api/sse"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// MaxHistoryLimit caps the limit query parameter
const MaxHistoryLimit = 100

// HistoryHandler serves the recent registrations staff pick session codes from
type HistoryHandler struct {
	storage  storage.Storage
	streamer *sse.Streamer
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(storage storage.Storage, streamer *sse.Streamer) *HistoryHandler {
	return &HistoryHandler{
		storage:  storage,
		streamer: streamer,
	}
}

// List handles GET /api/v1/stores/{store_id}/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	storeID := mux.Vars(r)["store_id"]

	logs, err := h.storage.RecentLogs(r.Context(), storeID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.History{StoreID: storeID, Logs: logs})
}

// Stream handles GET /api/v1/stores/{store_id}/history/stream
func (h *HistoryHandler) Stream(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	updates, err := h.storage.SubscribeLogs(r.Context(), mux.Vars(r)["store_id"], limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.streamer.ServeHistory(w, r, updates)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return storage.DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxHistoryLimit {
		return 0, NewInvalidRequestError("limit must be between 1 and " + strconv.Itoa(MaxHistoryLimit))
	}
	return limit, nil
}
