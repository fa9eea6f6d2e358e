// Package redis stores artifacts in Redis hashes next to the document store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/model"
)

const keyPrefix = "xrkiosk"

// blobKey returns the Redis key for the HASH holding an artifact
func blobKey(path string) string {
	return fmt.Sprintf("%s:blob:%s", keyPrefix, path)
}

// Backend stores each artifact as a hash of data and content type
type Backend struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis blob backend. A zero ttl keeps artifacts forever.
func New(client *redis.Client, ttl time.Duration) *Backend {
	return &Backend{client: client, ttl: ttl}
}

// Ensure Backend implements the interface
var _ blob.Backend = (*Backend)(nil)

func (b *Backend) Put(ctx context.Context, path string, data []byte, contentType string) error {
	key := blobKey(path)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, "data", data, "content_type", contentType)
	if b.ttl > 0 {
		pipe.Expire(ctx, key, b.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (b *Backend) Get(ctx context.Context, path string) ([]byte, string, error) {
	values, err := b.client.HMGet(ctx, blobKey(path), "data", "content_type").Result()
	if err != nil {
		return nil, "", err
	}
	data, ok := values[0].(string)
	if !ok {
		return nil, "", model.ErrBlobNotFound
	}
	contentType, _ := values[1].(string)
	if contentType == "" {
		contentType = blob.DefaultContentType
	}
	return []byte(data), contentType, nil
}
