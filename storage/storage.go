package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when no object exists at a locator
var ErrNotFound = errors.New("object not found")

// Storage interface for content-addressed object storage
type Storage interface {
	// Put stores data under key and returns the locator of the stored object.
	// Writing the same key twice with the same bytes is harmless.
	Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Get opens the object at locator
	Get(ctx context.Context, locator string) (io.ReadCloser, error)

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at locator
	Delete(ctx context.Context, locator string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Endpoint   string // Optional, for S3-compatible services
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for S3 storage")
		}
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// objectPath shards keys by the first two characters after the "x_" prefix,
// so "c_ab12..." is stored as "ab/c_ab12...".
func objectPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	name := key
	if i := strings.IndexByte(key, '_'); i >= 0 {
		name = key[i+1:]
	}
	if len(name) < 2 {
		return key, nil
	}
	return path.Join(name[:2], key), nil
}

// validLocator rejects locators that could escape the storage root.
func validLocator(locator string) error {
	if locator == "" || path.IsAbs(locator) || strings.Contains(locator, "\\") {
		return fmt.Errorf("invalid locator %q", locator)
	}
	for _, part := range strings.Split(locator, "/") {
		if part == ".." {
			return fmt.Errorf("invalid locator %q", locator)
		}
	}
	return nil
}
