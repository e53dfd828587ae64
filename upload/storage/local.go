package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage stores objects as files under a base directory and serves them
// under a base URL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocal creates a LocalStorage rooted at basePath. baseURL may be empty, in
// which case URL returns "".
//
// Example:
//
//	store := storage.NewLocal("./uploads", "/uploads/")
func NewLocal(basePath, baseURL string) *LocalStorage {
	return &LocalStorage{basePath: basePath, baseURL: baseURL}
}

// validateKey refuses keys that could escape the base directory.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("key contains null byte")
	}
	for _, r := range key {
		if r < 32 {
			return fmt.Errorf("key contains control character: %q", r)
		}
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("key contains path traversal or separator")
	}
	return nil
}

// Put writes r to <basePath>/<key>. Writing through a symlink is refused.
func (l *LocalStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if r == nil {
		return "", fmt.Errorf("reader cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create base directory: %w", err)
	}

	filePath := filepath.Join(l.basePath, key)
	if fi, err := os.Lstat(filePath); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("refusing to write to symlink: %s", key)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return key, nil
}

// URL returns baseURL + key, or "" when no base URL is configured.
func (l *LocalStorage) URL(key string) string {
	return joinURL(l.baseURL, key)
}

// Delete removes the file stored under key.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.basePath, key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether a file is stored under key.
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(l.basePath, key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// SignedURL is not supported for local storage; files are uploaded through the server.
func (l *LocalStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", ErrSignedURLUnsupported
}

// Open returns a reader for the file stored under key.
func (l *LocalStorage) Open(key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.basePath, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

// List returns the keys of all files whose name starts with prefix.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

// Dir returns the base directory, used to serve files over HTTP.
func (l *LocalStorage) Dir() string {
	return l.basePath
}

// Close is a no-op for local storage.
func (l *LocalStorage) Close() error {
	return nil
}
