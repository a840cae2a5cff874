// Package backup exports every tracked sheet as CSV to S3-compatible
// storage. When S3 is not configured (empty bucket), the NoopUploader is
// used and all backup operations are skipped.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/careercompass/compass/internal/config"
)

// ErrNotConfigured is returned when backup storage is not configured.
var ErrNotConfigured = errors.New("backup storage not configured")

// Uploader stores one exported object.
type Uploader interface {
	// Upload writes data under the given object key.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Enabled reports whether uploads actually go anywhere.
	Enabled() bool
}

// objectStore defines the minimal minio.Client operations used by
// S3Uploader. This interface enables testing with mock implementations.
type objectStore interface {
	PutObject(ctx context.Context, bucket, objectName string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Uploader uploads exports to S3-compatible storage.
type S3Uploader struct {
	client objectStore
	bucket string
}

// Upload writes the object to the configured bucket.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload backup object %s: %w", key, err)
	}
	return nil
}

// Enabled always reports true for a real S3 target.
func (u *S3Uploader) Enabled() bool { return true }

// NoopUploader is used when backup storage is not configured.
type NoopUploader struct{}

// Upload is a no-op when backup storage is not configured.
func (u *NoopUploader) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

// Enabled reports false so callers can skip export work entirely.
func (u *NoopUploader) Enabled() bool { return false }

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.BackupConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
	}, nil
}

// minioClientWrapper narrows *minio.Client to the objectStore interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.client.PutObject(ctx, bucket, objectName, reader, size, opts)
}
