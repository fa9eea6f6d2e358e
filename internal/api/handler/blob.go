package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/blob"
)

// BlobHandler serves stored signatures and photos
type BlobHandler struct {
	blobs *blob.Store
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(blobs *blob.Store) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

// Get handles GET /api/v1/blobs/{path}
func (h *BlobHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.blobs.Open(r.Context(), mux.Vars(r)["path"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Artifact(w, contentType, data)
}
