package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// File is a file selected for upload.
type File interface {
	Name() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type pathFile struct {
	path        string
	contentType string
	size        int64
}

// NewFileFromPath returns a File backed by a file on disk. The content type is
// inferred from the extension.
func NewFileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &pathFile{path: path, contentType: typeByName(path), size: info.Size()}, nil
}

func (f *pathFile) Name() string                 { return filepath.Base(f.path) }
func (f *pathFile) ContentType() string          { return f.contentType }
func (f *pathFile) Size() int64                  { return f.size }
func (f *pathFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type bytesFile struct {
	name        string
	contentType string
	data        []byte
}

// NewFileFromBytes returns an in-memory File. An empty contentType is inferred
// from the name.
func NewFileFromBytes(name, contentType string, data []byte) File {
	if contentType == "" {
		contentType = typeByName(name)
	}
	return &bytesFile{name: name, contentType: contentType, data: data}
}

func (f *bytesFile) Name() string        { return f.name }
func (f *bytesFile) ContentType() string { return f.contentType }
func (f *bytesFile) Size() int64         { return int64(len(f.data)) }
func (f *bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func typeByName(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
