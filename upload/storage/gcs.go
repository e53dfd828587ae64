package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig holds configuration for the GCS backend.
type GCSConfig struct {
	Bucket          string // GCS bucket name (required)
	ProjectID       string // GCP project ID (optional)
	CredentialsFile string // Path to service account JSON file (optional, uses env if empty)
	BaseURL         string // Custom base URL for public access (optional)
}

// GCSStorage stores gallery objects in a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	config GCSConfig
}

// NewGCS creates a GCS backend. Credentials come from CredentialsFile when set,
// otherwise from the application default chain.
func NewGCS(ctx context.Context, config GCSConfig) (*GCSStorage, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client, config: config}, nil
}

func (g *GCSStorage) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.config.Bucket).Object(cleanKey(key))
}

// Put streams r into the bucket under key.
func (g *GCSStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = cleanKey(key)
	w := g.client.Bucket(g.config.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return "", fmt.Errorf("failed to write to GCS: %w, and failed to close writer: %v", err, closeErr)
		}
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return key, nil
}

func (g *GCSStorage) URL(key string) string {
	if g.config.BaseURL != "" {
		return joinURL(g.config.BaseURL, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.config.Bucket, cleanKey(key))
}

func (g *GCSStorage) Delete(ctx context.Context, key string) error {
	err := g.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

func (g *GCSStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read GCS object attributes: %w", err)
	}
	return true, nil
}

// SignedURL returns a V4 signed PUT URL. The client must have been created
// with credentials that can sign, such as a service account key file.
func (g *GCSStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := g.client.Bucket(g.config.Bucket).SignedURL(cleanKey(key), &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "PUT",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign GCS URL: %w", err)
	}
	return url, nil
}

func (g *GCSStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.client.Bucket(g.config.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (g *GCSStorage) Close() error {
	return g.client.Close()
}
