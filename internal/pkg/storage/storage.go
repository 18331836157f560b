// Package storage issues presigned uploads to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// PresignedUpload tells the client where to PUT the file
type PresignedUpload struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Storage is what the API needs from an object store: signed direct uploads,
// an existence check before a key is referenced, and the public URL.
type Storage interface {
	PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}
