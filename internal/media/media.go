// Package media stores user uploads in an S3-compatible bucket.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const MaxAvatarBytes = 2 << 20

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader puts an object and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Extension returns the file extension for an accepted image content type.
func Extension(contentType string) (string, bool) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// AvatarKey builds a unique object key for a user's avatar.
func AvatarKey(userID uint, ext string) string {
	return path.Join("avatars", fmt.Sprintf("%d", userID), uuid.NewString()+ext)
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // base used to build object URLs; defaults to the endpoint
}

type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ Uploader = (*MinioStore)(nil)

// NewMinioStore connects and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		slog.Info("media: created bucket", "bucket", cfg.Bucket)
	}

	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(base, "/")}, nil
}

func (m *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return ObjectURL(m.baseURL, m.bucket, key), nil
}

func ObjectURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + path.Join(bucket, key)
}
