package memory

import (
	"context"
	"sync"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/model"
)

type object struct {
	data        []byte
	contentType string
}

// Backend keeps artifacts in process memory
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory blob backend
func New() *Backend {
	return &Backend{objects: make(map[string]object)}
}

// Ensure Backend implements the interface
var _ blob.Backend = (*Backend)(nil)

func (b *Backend) Put(ctx context.Context, path string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = object{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (b *Backend) Get(ctx context.Context, path string) ([]byte, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[path]
	if !ok {
		return nil, "", model.ErrBlobNotFound
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

// Len returns the number of stored artifacts
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
