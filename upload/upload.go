// Package upload moves gallery files from the user to storage.
//
// The client side is the Orchestrator: it takes a selection of files, asks the
// caller for a preview handle per file, submits each file through an Uploader
// and reports exactly one outcome per file, in completion order. Uploaders
// ship for an editor-style HTTP endpoint (HTTPUploader), for direct writes
// through a Processor (StorageUploader) and for plain functions (UploaderFunc).
//
// The server side is the Processor: it validates incoming files, stores them
// in a storage backend and answers the HTTP endpoints the HTTPUploader talks to.
//
// Example:
//
//	store := storage.NewLocal("./uploads", "/uploads/")
//	processor := upload.NewProcessor(store, upload.Options{
//	    MaxFileSize:      10 * 1024 * 1024, // 10MB
//	    AllowedMIMETypes: []string{"image/*", "video/mp4"},
//	})
//	http.Handle("/uploadFile", upload.Handler(processor, "image"))
package upload

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kdsmith18542/gallerykit/upload/storage"
)

var (
	// ErrMalformedResponse is reported when an endpoint answers success
	// without a file URL.
	ErrMalformedResponse = errors.New("upload: malformed response")
	// ErrTypeNotAllowed is returned when a file's MIME type or extension is not accepted.
	ErrTypeNotAllowed = errors.New("upload: file type not allowed")
	// ErrTooLarge is returned when a file exceeds MaxFileSize.
	ErrTooLarge = errors.New("upload: file too large")
	// ErrNoFiles is returned when a request carries no files.
	ErrNoFiles = errors.New("upload: no files")
)

// Hook types for post-processing
type OnSuccessHook func(ctx context.Context, result Result)
type OnErrorHook func(ctx context.Context, result Result, err error)

// Options configures upload validation. Zero values disable the corresponding check.
type Options struct {
	MaxFileSize       int64    // Maximum file size in bytes (0 = no limit)
	AllowedMIMETypes  []string // Allowed MIME types (e.g., ["image/jpeg", "image/*"])
	MaxFiles          int      // Maximum number of files per request (0 = no limit)
	AllowedExtensions []string // Allowed file extensions (e.g., [".jpg", ".png"])
}

// Result describes a stored file.
type Result struct {
	OriginalName string    // Original filename from the upload
	Size         int64     // Bytes written
	MIMEType     string    // Declared or inferred MIME type
	URL          string    // Public URL of the stored object
	Path         string    // Storage key
	Checksum     string    // Hex SHA-256 of the content
	UploadedAt   time.Time // Upload timestamp
}

// Processor validates uploaded files and writes them to a storage backend.
type Processor struct {
	storage   storage.Storage
	options   Options
	onSuccess []OnSuccessHook
	onError   []OnErrorHook
}

// NewProcessor creates a processor writing to s.
//
// Example:
//
//	processor := upload.NewProcessor(storage.NewMemory(""), upload.Options{
//	    MaxFileSize:      5 * 1024 * 1024,
//	    AllowedMIMETypes: []string{"image/*"},
//	})
func NewProcessor(s storage.Storage, options Options) *Processor {
	return &Processor{
		storage:   s,
		options:   options,
		onSuccess: make([]OnSuccessHook, 0),
		onError:   make([]OnErrorHook, 0),
	}
}

// OnSuccess registers a hook run after every stored file, in registration order.
//
// Example:
//
//	processor.OnSuccess(func(ctx context.Context, result upload.Result) {
//	    slog.Info("stored", "url", result.URL, "sha256", result.Checksum)
//	})
func (p *Processor) OnSuccess(hook OnSuccessHook) {
	p.onSuccess = append(p.onSuccess, hook)
}

// OnError registers a hook run when a file fails validation or storage.
func (p *Processor) OnError(hook OnErrorHook) {
	p.onError = append(p.onError, hook)
}

// Options returns the processor options.
func (p *Processor) Options() Options {
	return p.options
}

// Storage returns the backend the processor writes to.
func (p *Processor) Storage() storage.Storage {
	return p.storage
}

// Process stores every file of a multipart request field. The first failing
// file aborts the request; files stored before it are kept.
func (p *Processor) Process(r *http.Request, fieldName string) ([]Result, error) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	files := r.MultipartForm.File[fieldName]
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in field '%s'", ErrNoFiles, fieldName)
	}
	if p.options.MaxFiles > 0 && len(files) > p.options.MaxFiles {
		return nil, fmt.Errorf("too many files: %d (max: %d)", len(files), p.options.MaxFiles)
	}

	results := make([]Result, 0, len(files))
	for _, fileHeader := range files {
		result, err := p.processHeader(ctx, fileHeader)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Processor) processHeader(ctx context.Context, fileHeader *multipart.FileHeader) (Result, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()
	return p.ProcessFile(ctx, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
}

// ProcessFile validates and stores a single file. size may be negative when
// unknown; MaxFileSize is then enforced while streaming.
func (p *Processor) ProcessFile(ctx context.Context, name, contentType string, size int64, r io.Reader) (Result, error) {
	start := time.Now()
	observeStart(ctx, name, size)

	result, err := p.store(ctx, name, contentType, size, r)
	if err != nil {
		observeError(ctx, name, size, start, err)
		for _, hook := range p.onError {
			hook(ctx, result, err)
		}
		return Result{}, err
	}

	observeEnd(ctx, name, result.Size, start)
	for _, hook := range p.onSuccess {
		hook(ctx, result)
	}
	return result, nil
}

func (p *Processor) store(ctx context.Context, name, contentType string, size int64, r io.Reader) (Result, error) {
	result := Result{OriginalName: name, Size: size}

	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	result.MIMEType = contentType

	if err := p.Validate(name, contentType, size); err != nil {
		return result, err
	}

	key := generateFilename(name)
	hash := sha256.New()
	counter := &countingReader{r: io.TeeReader(r, hash)}
	var body io.Reader = counter
	if p.options.MaxFileSize > 0 {
		body = &limitReader{r: counter, remaining: p.options.MaxFileSize}
	}

	path, err := p.storage.Put(ctx, key, body, contentType)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			p.storage.Delete(ctx, key)
			return result, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, p.options.MaxFileSize)
		}
		return result, fmt.Errorf("failed to store file: %w", err)
	}

	result.Path = path
	result.URL = p.storage.URL(path)
	result.Size = counter.n
	result.Checksum = hex.EncodeToString(hash.Sum(nil))
	result.UploadedAt = time.Now()
	return result, nil
}

// Validate checks a file's declared size, MIME type and extension against the options.
func (p *Processor) Validate(name, contentType string, size int64) error {
	if p.options.MaxFileSize > 0 && size > p.options.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrTooLarge, size, p.options.MaxFileSize)
	}
	if len(p.options.AllowedMIMETypes) > 0 && !MatchType(p.options.AllowedMIMETypes, contentType) {
		return fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}
	if len(p.options.AllowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(name))
		if !p.isAllowedExtension(ext) {
			return fmt.Errorf("%w: extension %s", ErrTypeNotAllowed, ext)
		}
	}
	return nil
}

// MatchType reports whether mimeType matches one of the patterns. A pattern
// is an exact type, a "type/*" wildcard or "*".
func MatchType(patterns []string, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, allowed := range patterns {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if allowed == "*" || allowed == "*/*" || mimeType == allowed {
			return true
		}
		if strings.HasSuffix(allowed, "/*") {
			baseType := strings.TrimSuffix(allowed, "/*")
			if strings.HasPrefix(mimeType, baseType+"/") {
				return true
			}
		}
	}
	return false
}

func (p *Processor) isAllowedExtension(ext string) bool {
	for _, allowed := range p.options.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// generateFilename returns "<unix>_<32 hex chars><ext>".
func generateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	}
	return fmt.Sprintf("%d_%s%s", time.Now().Unix(), hex.EncodeToString(randomBytes), ext)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// limitReader fails with ErrTooLarge once more than remaining bytes are read.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
