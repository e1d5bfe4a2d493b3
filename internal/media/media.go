// Package media stores uploaded post images on a local filesystem or in an
// S3-compatible bucket.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"blogicum/internal/config"
	"blogicum/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ImageDir is the key prefix of post images.
const ImageDir = "posts_images"

// ErrNotFound is returned by Open for a missing key.
var ErrNotFound = errors.New("media not found")

// Store persists media objects under slash-separated keys.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Backend() string
}

// New builds the store selected by MEDIA_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case "", "local":
		return NewLocalStore(afero.NewOsFs(), cfg.MediaRoot, cfg.MediaURL), nil
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.MediaURL,
		})
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage checks that data is a supported image no larger than maxBytes
// and saves it under a fresh key, which it returns.
func UploadImage(ctx context.Context, store Store, data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", models.NewFieldValidationError(map[string]string{
			"image": "The submitted file is empty.",
		})
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("Image must not exceed %d MB.", maxBytes>>20),
		})
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", models.NewFieldValidationError(map[string]string{
			"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		})
	}

	key := path.Join(ImageDir, uuid.NewString()+ext)
	if err := store.Save(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", models.NewInternalError(fmt.Errorf("save image: %w", err))
	}
	return key, nil
}

// CleanKey rejects keys that escape the media root.
func CleanKey(key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", false
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

func joinURL(base, key string) string {
	if base == "" {
		base = "/media/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + key
}
