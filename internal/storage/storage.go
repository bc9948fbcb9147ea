package storage

import (
	"context"
	"io"
	"time"
)

// DefaultPresignTTL bounds how long a streaming URL stays valid.
const DefaultPresignTTL = 15 * time.Minute

// Service stores uploaded media objects and produces time-limited URLs for
// streaming them back.
type Service interface {
	UploadObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
