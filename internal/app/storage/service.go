package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the settings required to reach the media bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service is the media object store consumed by the upload endpoint and the
// chat media resolver.
type Service interface {
	// Upload streams body into the bucket under key and returns the
	// object's location.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) (string, error)

	// PresignDownload generates a time-limited URL for fetching key.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes key from the bucket.
	Delete(ctx context.Context, key string) error
}

// NewService returns the S3-backed Service implementation.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}
