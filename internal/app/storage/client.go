/*
Package storage implements the media object store on S3-compatible backends.

Chat media is uploaded server-side through the upload endpoint and later
resolved to presigned download URLs when referenced from WebSocket frames.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"shambachat/internal/pkg/logx"
)

// s3Client implements Service against an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
}

// newS3Client builds the SDK client with static credentials and a custom
// endpoint, which covers both AWS and self-hosted S3-compatible stores.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Upload streams body to the bucket under key and returns the object's
// location.
func (c *s3Client) Upload(ctx context.Context, key string, mimeType string, body io.Reader) (string, error) {
	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})
	if err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", errors.New("failed to upload file to storage")
	}

	return out.Location, nil
}

// PresignDownload generates a time-limited GET URL for key.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.s3Client)

	resp, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	}, s3.WithPresignExpires(duration))

	if err != nil {
		logx.Error(err, "Failed to generate presigned download URL", "key", key)
		return "", errors.New("failed to generate presigned URL")
	}

	return resp.URL, nil
}

// Delete removes key from the bucket.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	})

	if err != nil {
		logx.Error(err, "S3 delete failed", "key", key)
		return errors.New("failed to delete file from storage")
	}

	return nil
}
