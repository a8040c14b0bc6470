package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/talentline/apiserver/config"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Backend is an object store bound to a single bucket.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage holds uploaded files (resumes) in the configured backend.
type Storage struct {
	backend Backend
	name    string
}

// New connects to the backend selected by cfg.Backend and makes sure its
// bucket exists. It returns nil, nil when storage is disabled.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend Backend
		err     error
	)
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch name {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = newMinioBackend(cfg.Minio)
	case "gcs":
		backend, err = newGCSBackend(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s storage: %w", name, err)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("%s storage: ensure bucket %q: %w", name, backend.Bucket(), err)
	}
	return &Storage{backend: backend, name: name}, nil
}

// NewWithBackend wraps an already constructed backend.
func NewWithBackend(name string, backend Backend) *Storage {
	return &Storage{backend: backend, name: name}
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens an object. A missing key yields ErrObjectNotFound.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.backend.Delete(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return err
}

// Name reports the backend kind, e.g. "minio".
func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
