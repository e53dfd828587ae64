package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kdsmith18542/gallerykit/upload/storage"
)

// gatedUploader blocks each upload until its gate is released, so tests can
// choose the completion order.
type gatedUploader struct {
	mu    sync.Mutex
	gates map[string]chan Response
}

func newGatedUploader(names ...string) *gatedUploader {
	g := &gatedUploader{gates: make(map[string]chan Response)}
	for _, name := range names {
		g.gates[name] = make(chan Response, 1)
	}
	return g
}

func (g *gatedUploader) Upload(ctx context.Context, file File) (Response, error) {
	g.mu.Lock()
	gate := g.gates[file.Name()]
	g.mu.Unlock()
	select {
	case resp := <-gate:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (g *gatedUploader) release(name, url string) {
	g.gates[name] <- Response{Success: true, File: &FileInfo{URL: url}}
}

type recorder struct {
	mu       sync.Mutex
	previews []string
	uploaded []string
	failed   []string
	errs     []error
	events   chan string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 16)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnPreview: func(file File) any {
			r.mu.Lock()
			r.previews = append(r.previews, file.Name())
			r.mu.Unlock()
			return "preview:" + file.Name()
		},
		OnUpload: func(resp Response, preview any) {
			r.mu.Lock()
			r.uploaded = append(r.uploaded, resp.File.URL)
			r.mu.Unlock()
			r.events <- fmt.Sprint(preview)
		},
		OnError: func(err error, preview any) {
			r.mu.Lock()
			r.failed = append(r.failed, fmt.Sprint(preview))
			r.errs = append(r.errs, err)
			r.mu.Unlock()
			r.events <- fmt.Sprint(preview)
		},
	}
}

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for upload outcome")
		return ""
	}
}

func files(names ...string) []File {
	out := make([]File, len(names))
	for i, name := range names {
		out[i] = NewFileFromBytes(name, "image/png", []byte(name))
	}
	return out
}

func TestOrchestrator_CompletionOrder(t *testing.T) {
	uploader := newGatedUploader("a.png", "b.png")
	rec := newRecorder()

	batch := NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), -1, files("a.png", "b.png"), rec.callbacks())

	if got := fmt.Sprint(rec.previews); got != "[a.png b.png]" {
		t.Errorf("Expected previews in selection order before any upload, got %s", got)
	}

	uploader.release("b.png", "u/b")
	if got := rec.next(t); got != "preview:b.png" {
		t.Errorf("Expected b.png to complete first, got %s", got)
	}
	uploader.release("a.png", "u/a")
	rec.next(t)
	batch.Wait()

	if got := fmt.Sprint(rec.uploaded); got != "[u/b u/a]" {
		t.Errorf("Expected completion order [u/b u/a], got %s", got)
	}
	outcomes := batch.Outcomes()
	if len(outcomes) != 2 || outcomes[0].File.Name() != "b.png" || outcomes[0].TaskID == "" {
		t.Errorf("Unexpected outcomes: %+v", outcomes)
	}
	if outcomes[0].TaskID == outcomes[1].TaskID {
		t.Error("Expected distinct task IDs")
	}
}

func TestOrchestrator_SkipsBeyondRemaining(t *testing.T) {
	var mu sync.Mutex
	var submitted []string
	uploader := UploaderFunc(func(ctx context.Context, file File) (Response, error) {
		mu.Lock()
		submitted = append(submitted, file.Name())
		mu.Unlock()
		return Response{Success: true, File: &FileInfo{URL: "u/" + file.Name()}}, nil
	})
	rec := newRecorder()

	batch := NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), 2, files("a.png", "b.png", "c.png"), rec.callbacks())
	batch.Wait()

	if batch.Accepted() != 2 || batch.Skipped() != 1 {
		t.Errorf("Expected 2 accepted and 1 skipped, got %d and %d", batch.Accepted(), batch.Skipped())
	}
	if len(submitted) != 2 || len(rec.previews) != 2 {
		t.Errorf("Expected only a.png and b.png submitted, got %v", submitted)
	}

	empty := NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), 0, files("d.png"), Callbacks{})
	select {
	case <-empty.Done():
	case <-time.After(time.Second):
		t.Fatal("Expected empty batch to be done immediately")
	}
}

func TestOrchestrator_MalformedSuccess(t *testing.T) {
	uploader := UploaderFunc(func(ctx context.Context, file File) (Response, error) {
		return Response{Success: true}, nil
	})
	rec := newRecorder()

	NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), -1, files("a.png"), rec.callbacks()).Wait()

	if len(rec.uploaded) != 0 {
		t.Error("Expected no successful upload")
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", rec.errs)
	}
	if rec.failed[0] != "preview:a.png" {
		t.Errorf("Expected the preview handle to be passed back, got %s", rec.failed[0])
	}
}

func TestOrchestrator_FailuresDoNotAbortSiblings(t *testing.T) {
	uploader := UploaderFunc(func(ctx context.Context, file File) (Response, error) {
		switch file.Name() {
		case "bad.png":
			return Response{}, errors.New("network down")
		case "panic.png":
			panic("boom")
		case "rejected.png":
			return Response{Success: false, Message: "nope"}, nil
		}
		return Response{Success: true, File: &FileInfo{URL: "u/" + file.Name()}}, nil
	})
	rec := newRecorder()

	batch := NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), -1,
		files("bad.png", "ok.png", "panic.png", "rejected.png"), rec.callbacks())
	batch.Wait()

	if len(rec.uploaded) != 1 || rec.uploaded[0] != "u/ok.png" {
		t.Errorf("Expected ok.png to succeed, got %v", rec.uploaded)
	}
	if len(rec.failed) != 3 {
		t.Errorf("Expected 3 failures, got %v", rec.failed)
	}
	if len(batch.Outcomes()) != 4 {
		t.Errorf("Expected one outcome per file, got %d", len(batch.Outcomes()))
	}
}

func TestOrchestrator_ContextCancel(t *testing.T) {
	uploader := newGatedUploader("a.png")
	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	batch := NewOrchestrator(uploader).UploadSelectedFiles(ctx, -1, files("a.png"), rec.callbacks())
	cancel()
	batch.Wait()

	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", rec.errs)
	}
}

func TestOrchestrator_WithStorageUploader(t *testing.T) {
	mem := storage.NewMemory("/uploads/")
	uploader := TypeFilter("image/*", NewStorageUploader(NewProcessor(mem, Options{})))
	rec := newRecorder()

	selection := []File{
		NewFileFromBytes("a.png", "", []byte("png")),
		NewFileFromBytes("b.txt", "", []byte("txt")),
	}
	NewOrchestrator(uploader).UploadSelectedFiles(context.Background(), -1, selection, rec.callbacks()).Wait()

	if len(rec.uploaded) != 1 || len(mem.Keys()) != 1 {
		t.Errorf("Expected only the png stored, got %v / %v", rec.uploaded, mem.Keys())
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], ErrTypeNotAllowed) {
		t.Errorf("Expected ErrTypeNotAllowed for b.txt, got %v", rec.errs)
	}
}
