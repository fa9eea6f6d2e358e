package mocks

import "context"

// MockUploader records data URI uploads and returns "mem://{path}" references
type MockUploader struct {
	// Err fails every upload when set
	Err     error
	Uploads map[string]string
}

// NewMockUploader creates an uploader that always succeeds
func NewMockUploader() *MockUploader {
	return &MockUploader{Uploads: make(map[string]string)}
}

// UploadDataURI stores the data URI under path
func (u *MockUploader) UploadDataURI(ctx context.Context, path, dataURI string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	u.Uploads[path] = dataURI
	return "mem://" + path, nil
}
