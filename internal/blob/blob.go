// Package blob stores signature and photo artifacts and hands out public references to them.
package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mcoot/xrkiosk/internal/model"
)

// Backend stores raw artifact bytes under a relative path
type Backend interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, string, error)
}

// DefaultContentType is used when an upload does not say what it is
const DefaultContentType = "application/octet-stream"

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store wraps a backend and turns stored paths into public references
type Store struct {
	backend Backend
	baseURL string
}

// New creates a blob store. References are built as {baseURL}/api/v1/blobs/{path}.
func New(backend Backend, baseURL string) *Store {
	return &Store{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SignaturePath returns where a player's signature image is stored
func SignaturePath(code model.SessionCode, playerID model.PlayerID) string {
	return fmt.Sprintf("signatures/%s/%s.png", code, playerID)
}

// PhotoPath returns where a player's photo is stored
func PhotoPath(code model.SessionCode, playerID model.PlayerID) string {
	return fmt.Sprintf("photos/%s/%s.png", code, playerID)
}

// ValidatePath rejects empty, absolute and traversing paths
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", model.ErrInvalidBlobPath)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." || !segmentPattern.MatchString(segment) {
			return fmt.Errorf("%w: %q", model.ErrInvalidBlobPath, path)
		}
	}
	return nil
}

// Upload stores data and returns its public reference
func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	if err := s.backend.Put(ctx, path, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return s.URL(path), nil
}

// UploadDataURI decodes a data URI and stores its payload
func (s *Store) UploadDataURI(ctx context.Context, path, dataURI string) (string, error) {
	data, contentType, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, path, data, contentType)
}

// Open returns a stored artifact and its content type
func (s *Store) Open(ctx context.Context, path string) ([]byte, string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, "", err
	}
	return s.backend.Get(ctx, path)
}

// URL returns the public reference of a stored path
func (s *Store) URL(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/api/v1/blobs/" + strings.Join(parts, "/")
}

// DecodeDataURI parses "data:<type>;base64,<payload>"
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", model.ErrInvalidArtifact
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", model.ErrInvalidArtifact
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", model.ErrInvalidArtifact
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrInvalidArtifact, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", model.ErrInvalidArtifact)
	}
	return data, contentType, nil
}
