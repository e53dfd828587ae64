package upload

import (
	"context"
	"fmt"
)

// StorageUploader writes files straight through a Processor, skipping HTTP.
type StorageUploader struct {
	processor *Processor
}

// NewStorageUploader returns an Uploader backed by p.
func NewStorageUploader(p *Processor) *StorageUploader {
	return &StorageUploader{processor: p}
}

func (s *StorageUploader) Upload(ctx context.Context, file File) (Response, error) {
	rc, err := file.Open()
	if err != nil {
		return Response{}, fmt.Errorf("failed to open %s: %w", file.Name(), err)
	}
	defer rc.Close()

	result, err := s.processor.ProcessFile(ctx, file.Name(), file.ContentType(), file.Size(), rc)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, File: &FileInfo{URL: result.URL}}, nil
}
