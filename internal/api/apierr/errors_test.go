package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{model.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: cannot go to x from y", model.ErrInvalidTransition), http.StatusConflict},
		{model.ErrTeamNotFound, http.StatusNotFound},
		{model.ErrTeamFull, http.StatusConflict},
		{model.ErrTeamNotReady, http.StatusConflict},
		{model.ErrInvalidSessionCode, http.StatusBadRequest},
		{model.ErrSignatureRequired, http.StatusBadRequest},
		{model.ErrConsentRequired, http.StatusBadRequest},
		{model.ErrWeaponUnavailable, http.StatusConflict},
		{model.ErrInvalidArtifact, http.StatusBadRequest},
		{model.ErrBlobNotFound, http.StatusNotFound},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrInvalidSession, http.StatusUnauthorized},
		{NewInvalidRequestError("bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestWriteValidationErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &model.ValidationError{Fields: map[string]string{"email": "invalid email address"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeValidationFailed, body.Error.Code)
	assert.Equal(t, map[string]string{"email": "invalid email address"}, body.Error.Fields)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis: connection refused"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeInternalError, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "redis")
}
