// Package media stores uploaded files (videos, thumbnails, avatars, cover images) in an
// S3-compatible object store.
package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Asset is a stored media object.
type Asset struct {
	URL      string  `json:"url"`
	Key      string  `json:"key"`
	Duration float64 `json:"duration,omitempty"`
}

// Uploader moves local files into media storage.
type Uploader interface {
	// Upload stores the file at localPath and removes the local copy, whether the
	// upload succeeded or not.
	Upload(ctx context.Context, localPath string) (*Asset, error)
	// Remove deletes the stored object behind url. URLs this storage did not issue are
	// ignored.
	Remove(ctx context.Context, url string) error
}

// SaveTemp copies a multipart file into dir under a random name keeping its extension,
// and returns the local path.
func SaveTemp(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return path, nil
}

// objectKey names an object after a fresh uuid, keeping the file extension.
func objectKey(localPath string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
}
