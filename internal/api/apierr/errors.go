package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeTeamNotFound       = "TEAM_NOT_FOUND"
	CodeTeamFull           = "TEAM_FULL"
	CodeTeamFrozen         = "TEAM_FROZEN"
	CodeTeamNotReady       = "TEAM_NOT_READY"
	CodeInvalidSessionCode = "INVALID_SESSION_CODE"
	CodeInvalidStoreID     = "INVALID_STORE_ID"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeNoPlayerSelected   = "NO_PLAYER_SELECTED"
	CodeGameRequired       = "GAME_REQUIRED"
	CodeUnknownGame        = "UNKNOWN_GAME"
	CodeSignatureRequired  = "SIGNATURE_REQUIRED"
	CodeConsentRequired    = "CONSENT_REQUIRED"
	CodeTeamNameRequired   = "TEAM_NAME_REQUIRED"
	CodeUnknownWeapon      = "UNKNOWN_WEAPON"
	CodeWeaponUnavailable  = "WEAPON_UNAVAILABLE"
	CodePhotoRequired      = "PHOTO_REQUIRED"
	CodeInvalidArtifact    = "INVALID_ARTIFACT"
	CodeBlobNotFound       = "BLOB_NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error is reported with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeValidationFailed, "Some fields are invalid", ve.Fields}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeSessionNotFound, Message: "Kiosk session not found"}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{Code: CodeInvalidTransition, Message: err.Error()}}
	case errors.Is(err, model.ErrInvalidStoreID):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidStoreID, Message: "Store id must be letters and digits only"}}
	case errors.Is(err, model.ErrTeamNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeTeamNotFound, Message: "Team not found"}}
	case errors.Is(err, model.ErrTeamFull):
		return &httpError{http.StatusConflict, APIError{Code: CodeTeamFull, Message: "Team is full"}}
	case errors.Is(err, model.ErrTeamFrozen):
		return &httpError{http.StatusConflict, APIError{Code: CodeTeamFrozen, Message: "Team roster is frozen"}}
	case errors.Is(err, model.ErrTeamNotReady):
		return &httpError{http.StatusConflict, APIError{Code: CodeTeamNotReady, Message: "Every player needs a photo and a weapon"}}
	case errors.Is(err, model.ErrInvalidSessionCode):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidSessionCode, Message: "Session code must look like store-12345"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodePlayerNotFound, Message: "Player not found"}}
	case errors.Is(err, model.ErrNoPlayerSelected):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeNoPlayerSelected, Message: "No player selected"}}
	case errors.Is(err, model.ErrGameRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeGameRequired, Message: "A game must be selected"}}
	case errors.Is(err, model.ErrUnknownGame):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeUnknownGame, Message: "Game is not offered at this venue"}}
	case errors.Is(err, model.ErrSignatureRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeSignatureRequired, Message: "Signature is required"}}
	case errors.Is(err, model.ErrConsentRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeConsentRequired, Message: "All agreements must be accepted"}}
	case errors.Is(err, model.ErrTeamNameRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeTeamNameRequired, Message: "Team name is required"}}
	case errors.Is(err, model.ErrUnknownWeapon):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeUnknownWeapon, Message: "Unknown weapon type"}}
	case errors.Is(err, model.ErrWeaponUnavailable):
		return &httpError{http.StatusConflict, APIError{Code: CodeWeaponUnavailable, Message: "Weapon type is not available"}}
	case errors.Is(err, model.ErrPhotoRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodePhotoRequired, Message: "Photo is required"}}
	case errors.Is(err, model.ErrInvalidArtifact), errors.Is(err, model.ErrInvalidBlobPath):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidArtifact, Message: err.Error()}}
	case errors.Is(err, model.ErrBlobNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeBlobNotFound, Message: "Blob not found"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid PIN"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
