package upload

import (
	"context"
	"fmt"
	"time"
)

// PresignOptions describes a direct-to-storage upload.
type PresignOptions struct {
	// Filename is the client's file name; only its extension is kept.
	Filename string `json:"filename"`
	// ContentType is the MIME type the client will PUT.
	ContentType string `json:"contentType"`
	// Size is the declared file size, checked against MaxFileSize when positive.
	Size int64 `json:"size,omitempty"`
	// Expiration defaults to 15 minutes.
	Expiration time.Duration `json:"-"`
}

// PresignResult tells the client where to PUT the file and where it will be served.
type PresignResult struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presign validates opts and returns a signed URL for a freshly generated key.
//
// Example:
//
//	result, err := processor.Presign(ctx, upload.PresignOptions{
//	    Filename:    "beach.jpg",
//	    ContentType: "image/jpeg",
//	})
//	// the client PUTs to result.UploadURL, then inserts result.URL into the gallery
func (p *Processor) Presign(ctx context.Context, opts PresignOptions) (*PresignResult, error) {
	if opts.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrNoFiles)
	}
	if opts.Expiration <= 0 {
		opts.Expiration = 15 * time.Minute
	}
	if err := p.Validate(opts.Filename, opts.ContentType, opts.Size); err != nil {
		return nil, err
	}

	key := generateFilename(opts.Filename)
	url, err := p.storage.SignedURL(ctx, key, opts.Expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &PresignResult{
		UploadURL: url,
		Key:       key,
		URL:       p.storage.URL(key),
		ExpiresAt: time.Now().Add(opts.Expiration),
	}, nil
}

// Status reports whether a presigned upload has landed.
func (p *Processor) Status(ctx context.Context, key string) (bool, error) {
	return p.storage.Exists(ctx, key)
}
