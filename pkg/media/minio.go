package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the base of object URLs handed to clients; defaults to the endpoint.
	PublicURL string
}

// MinioStorage is an Uploader backed by MinIO or any S3-compatible store.
type MinioStorage struct {
	cfg    Config
	client *minio.Client
}

func NewMinioStorage(cfg Config) (*MinioStorage, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if cfg.PublicURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		cfg.PublicURL = scheme + endpoint
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &MinioStorage{cfg: cfg, client: cl}, nil
}

func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload stores localPath under a fresh key with its sniffed content type.
func (s *MinioStorage) Upload(ctx context.Context, localPath string) (*Asset, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", localPath).Msg("failed to remove temp upload")
		}
	}()

	contentType := "application/octet-stream"
	var duration float64
	if mt, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mt.String()
		if mt.Is("video/mp4") || mt.Is("video/quicktime") {
			if duration, err = videoDuration(localPath); err != nil {
				logging.Debug().Err(err).Str("path", localPath).Msg("could not read video duration")
			}
		}
	}

	key := objectKey(localPath)
	_, err := s.client.FPutObject(ctx, s.cfg.Bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &Asset{URL: s.URL(key), Key: key, Duration: duration}, nil
}

func (s *MinioStorage) Remove(ctx context.Context, url string) error {
	key := s.KeyFromURL(url)
	if key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

// URL is the public address of key.
func (s *MinioStorage) URL(key string) string {
	return s.cfg.PublicURL + "/" + s.cfg.Bucket + "/" + key
}

// KeyFromURL recovers the object key of a URL produced by URL, or "" for a foreign URL.
func (s *MinioStorage) KeyFromURL(url string) string {
	prefix := s.cfg.PublicURL + "/" + s.cfg.Bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
