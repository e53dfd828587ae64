// Package storage provides the object stores gallery uploads are written to.
//
// Supported backends:
//   - Local: file system storage served under a base URL
//   - S3: Amazon S3 and S3-compatible services (MinIO, R2)
//   - GCS: Google Cloud Storage
//   - Azure: Azure Blob Storage
//   - Memory: in-process storage for tests and previews
//
// Any backend can be wrapped with NewObservable to report operation latency
// to the observability package.
//
// Example:
//
//	store, err := storage.Open(ctx, storage.Config{Backend: "local", Dir: "./uploads", BaseURL: "/uploads/"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	key, err := store.Put(ctx, "1700000000_ab12.png", file, "image/png")
//	url := store.URL(key)
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when a key does not exist in the backend.
var ErrNotFound = errors.New("storage: object not found")

// ErrSignedURLUnsupported is returned by backends that cannot sign URLs.
var ErrSignedURLUnsupported = errors.New("storage: signed URLs not supported")

// Storage is implemented by every backend.
type Storage interface {
	// Put writes the content of r under key and returns the key actually used.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)

	// URL returns the public URL of a stored key, or "" when the backend has none.
	URL(key string) string

	// Delete removes key. Deleting a missing key returns ErrNotFound where the
	// backend can tell.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// SignedURL returns a time-limited URL a client can PUT the object to directly.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Close releases backend resources.
	Close() error
}

// Lister is implemented by backends that can enumerate stored keys.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config selects and configures a backend for Open.
type Config struct {
	Backend string // local, s3, gcs, azure or memory

	// Local
	Dir     string
	BaseURL string

	// Shared by the cloud backends
	Bucket string

	// S3
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	ForcePathStyle  bool

	// GCS
	ProjectID       string
	CredentialsFile string

	// Azure
	AccountName string
	AccountKey  string
}

// Open builds the backend named by cfg.Backend and wraps it with NewObservable.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	var (
		s   Storage
		err error
	)

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", "local":
		backend = "local"
		if cfg.Dir == "" {
			return nil, fmt.Errorf("local storage requires a directory")
		}
		s = NewLocal(cfg.Dir, cfg.BaseURL)
	case "memory":
		s = NewMemory(cfg.BaseURL)
	case "s3":
		s, err = NewS3(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
			ForcePathStyle:  cfg.ForcePathStyle,
			BaseURL:         cfg.BaseURL,
		})
	case "gcs":
		s, err = NewGCS(ctx, GCSConfig{
			Bucket:          cfg.Bucket,
			ProjectID:       cfg.ProjectID,
			CredentialsFile: cfg.CredentialsFile,
			BaseURL:         cfg.BaseURL,
		})
	case "azure":
		s, err = NewAzureBlob(AzureConfig{
			AccountName: cfg.AccountName,
			AccountKey:  cfg.AccountKey,
			Container:   cfg.Bucket,
			BaseURL:     cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewObservable(s, backend), nil
}

// cleanKey normalizes an object key for the cloud backends.
func cleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	return strings.TrimLeft(key, "/")
}

// joinURL joins base and key with exactly one slash.
func joinURL(base, key string) string {
	if base == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimLeft(key, "/")
}
