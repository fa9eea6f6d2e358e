package blob_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/blob/memory"
	"github.com/mcoot/xrkiosk/internal/model"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestDecodeDataURI(t *testing.T) {
	data, contentType, err := blob.DecodeDataURI(pngDataURI())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)

	data, contentType, err = blob.DecodeDataURI("data:;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)
	assert.Equal(t, blob.DefaultContentType, contentType)
}

func TestDecodeDataURIRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"image/png;base64,aGk=",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	}
	for _, uri := range tests {
		t.Run(uri, func(t *testing.T) {
			_, _, err := blob.DecodeDataURI(uri)
			assert.ErrorIs(t, err, model.ErrInvalidArtifact)
		})
	}
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, blob.ValidatePath("photos/nk1-12345/player-1.png"))

	for _, path := range []string{"", "/abs.png", "photos/../secret", "photos//x.png", "photos/.hidden", "a b.png"} {
		assert.ErrorIs(t, blob.ValidatePath(path), model.ErrInvalidBlobPath, path)
	}
}

func TestArtifactPaths(t *testing.T) {
	assert.Equal(t, "signatures/nk1-12345/player-2.png", blob.SignaturePath("nk1-12345", "player-2"))
	assert.Equal(t, "photos/nk1-12345/player-2.png", blob.PhotoPath("nk1-12345", "player-2"))
}

func TestUploadReturnsPublicReference(t *testing.T) {
	store := blob.New(memory.New(), "http://kiosk.local:8080/")
	ctx := context.Background()

	ref, err := store.UploadDataURI(ctx, "photos/nk1-12345/player-1.png", pngDataURI())
	require.NoError(t, err)
	assert.Equal(t, "http://kiosk.local:8080/api/v1/blobs/photos/nk1-12345/player-1.png", ref)

	data, contentType, err := store.Open(ctx, "photos/nk1-12345/player-1.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)
}

func TestUploadRejectsBadInput(t *testing.T) {
	backend := memory.New()
	store := blob.New(backend, "")
	ctx := context.Background()

	_, err := store.UploadDataURI(ctx, "photos/x.png", "not a data uri")
	assert.ErrorIs(t, err, model.ErrInvalidArtifact)

	_, err = store.Upload(ctx, "../x.png", pngBytes, "image/png")
	assert.ErrorIs(t, err, model.ErrInvalidBlobPath)
	assert.Equal(t, 0, backend.Len())
}

func TestOpenMissing(t *testing.T) {
	store := blob.New(memory.New(), "")
	_, _, err := store.Open(context.Background(), "photos/none.png")
	assert.ErrorIs(t, err, model.ErrBlobNotFound)
}
