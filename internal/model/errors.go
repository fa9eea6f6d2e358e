package model

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrInvalidStoreID    = errors.New("invalid store id")

	// Team errors
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamFull           = errors.New("team is full")
	ErrTeamFrozen         = errors.New("team roster is frozen")
	ErrTeamNotReady       = errors.New("not every player has a photo and a weapon")
	ErrInvalidSessionCode = errors.New("invalid session code")

	// Player errors
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNoPlayerSelected = errors.New("no player selected")

	// Registration errors
	ErrValidation        = errors.New("validation failed")
	ErrGameRequired      = errors.New("a game must be selected")
	ErrUnknownGame       = errors.New("unknown game")
	ErrSignatureRequired = errors.New("signature is required")
	ErrConsentRequired   = errors.New("all consent flags must be accepted")
	ErrTeamNameRequired  = errors.New("team name is required")

	// Equipment errors
	ErrUnknownWeapon     = errors.New("unknown weapon type")
	ErrWeaponUnavailable = errors.New("weapon type has no remaining capacity")
	ErrPhotoRequired     = errors.New("photo is required")

	// Storage errors
	ErrBlobNotFound    = errors.New("blob not found")
	ErrInvalidBlobPath = errors.New("invalid blob path")
	ErrInvalidArtifact = errors.New("artifact must be a base64 data URI")
)

// ValidationError carries field-level messages for a rejected form
type ValidationError struct {
	Fields map[string]string
}

// Error implements error
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
