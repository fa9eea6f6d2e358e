// Package file stores artifacts on the local filesystem.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/model"
)

// Backend writes artifacts below a root directory. The content type is derived
// from the file extension on read.
type Backend struct {
	root string
}

// New creates the root directory if needed
func New(root string) (*Backend, error) {
	if root == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Backend{root: root}, nil
}

// Ensure Backend implements the interface
var _ blob.Backend = (*Backend)(nil)

func (b *Backend) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	// Write then rename so readers never see a partial image
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, full)
}

func (b *Backend) Get(ctx context.Context, path string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", model.ErrBlobNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = blob.DefaultContentType
	}
	return data, contentType, nil
}
