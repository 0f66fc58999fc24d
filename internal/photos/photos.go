// Package photos stores structure photos as opaque blobs. Records keep only
// the returned reference.
package photos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bridgewatch/bridgewatch/pkg/config"
)

// ErrNotFound is returned when a reference points at no blob.
var ErrNotFound = errors.New("photo not found")

// Storage abstracts blob storage for photos.
type Storage interface {
	// Put stores data and returns its reference.
	Put(ctx context.Context, structureID string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// newRef builds "<structureID>/<uuid><ext>" and sniffs the content type.
func newRef(structureID string, data []byte) (ref, contentType string, err error) {
	if structureID == "" || strings.ContainsAny(structureID, `/\`) || structureID == "." || structureID == ".." {
		return "", "", fmt.Errorf("invalid structure id %q", structureID)
	}
	contentType = http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return structureID + "/" + uuid.NewString() + ext, contentType, nil
}

// checkRef rejects references that could escape the storage root.
func checkRef(ref string) error {
	if ref == "" || ref == ".." || path.IsAbs(ref) || path.Clean(ref) != ref || strings.HasPrefix(ref, "../") || strings.Contains(ref, `\`) {
		return fmt.Errorf("invalid photo reference %q", ref)
	}
	return nil
}

// LocalStorage implements Storage using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) Put(ctx context.Context, structureID string, data []byte) (string, error) {
	ref, _, err := newRef(structureID, data)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.BaseDir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return ref, nil
}

func (s *LocalStorage) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.BaseDir, filepath.FromSlash(ref)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return data, err
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.BaseDir, filepath.FromSlash(ref)))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return err
}

// New creates the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.Dir), nil
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
	}
	return nil, fmt.Errorf("unknown photo storage backend %q", cfg.Backend)
}
