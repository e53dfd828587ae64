package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kdsmith18542/gallerykit/observability"
)

// ObservableStorage wraps a Storage and reports every operation's duration and
// outcome to the global observer.
type ObservableStorage struct {
	storage     Storage
	storageType string
}

// NewObservable wraps s. storageType labels the reported operations.
func NewObservable(s Storage, storageType string) *ObservableStorage {
	return &ObservableStorage{storage: s, storageType: storageType}
}

func (o *ObservableStorage) report(ctx context.Context, operation string, start time.Time, success bool) {
	observability.GetObserver().OnStorageOperation(ctx, operation, o.storageType, time.Since(start), success)
}

func (o *ObservableStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	start := time.Now()
	stored, err := o.storage.Put(ctx, key, r, contentType)
	o.report(ctx, "put", start, err == nil)
	return stored, err
}

// URL is not reported; it never touches the backend.
func (o *ObservableStorage) URL(key string) string {
	return o.storage.URL(key)
}

func (o *ObservableStorage) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := o.storage.Delete(ctx, key)
	o.report(ctx, "delete", start, err == nil)
	return err
}

func (o *ObservableStorage) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := o.storage.Exists(ctx, key)
	o.report(ctx, "exists", start, err == nil)
	return ok, err
}

func (o *ObservableStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	start := time.Now()
	url, err := o.storage.SignedURL(ctx, key, expiry)
	o.report(ctx, "signed_url", start, err == nil)
	return url, err
}

// List delegates to the wrapped backend when it implements Lister.
func (o *ObservableStorage) List(ctx context.Context, prefix string) ([]string, error) {
	lister, ok := o.storage.(Lister)
	if !ok {
		return nil, fmt.Errorf("storage backend %s cannot list objects", o.storageType)
	}
	start := time.Now()
	keys, err := lister.List(ctx, prefix)
	o.report(ctx, "list", start, err == nil)
	return keys, err
}

func (o *ObservableStorage) Close() error {
	start := time.Now()
	err := o.storage.Close()
	o.report(context.Background(), "close", start, err == nil)
	return err
}

// Unwrap returns the wrapped backend.
func (o *ObservableStorage) Unwrap() Storage {
	return o.storage
}
