package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStorage keeps objects in memory. It is used by tests and by the CLI
// when no persistent backend is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemory creates an empty MemoryStorage. URLs default to "/uploads/<key>".
func NewMemory(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "/uploads/"
	}
	return &MemoryStorage{objects: make(map[string]memoryObject), baseURL: baseURL}
}

func (m *MemoryStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if r == nil {
		return "", fmt.Errorf("reader cannot be nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return key, nil
}

func (m *MemoryStorage) URL(key string) string {
	return joinURL(m.baseURL, key)
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("%s?upload=true&expires=%d", m.URL(key), int(expiry.Seconds())), nil
}

// Get returns the stored bytes and content type of key.
func (m *MemoryStorage) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return bytes.Clone(obj.data), obj.contentType, nil
}

// Keys returns all stored keys in sorted order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns the stored keys starting with prefix, sorted.
func (m *MemoryStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, k := range m.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	m.objects = make(map[string]memoryObject)
	m.mu.Unlock()
	return nil
}
