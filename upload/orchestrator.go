package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kdsmith18542/gallerykit/observability"
)

// Uploader submits one file to a transport.
type Uploader interface {
	Upload(ctx context.Context, file File) (Response, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, file File) (Response, error)

func (f UploaderFunc) Upload(ctx context.Context, file File) (Response, error) {
	return f(ctx, file)
}

// Callbacks receive the progress of each accepted file. OnPreview runs
// synchronously inside UploadSelectedFiles, in selection order. Afterwards
// exactly one of OnUpload or OnError runs per file, on the goroutine that
// finished the transfer. Any callback may be nil.
type Callbacks struct {
	OnPreview func(file File) any
	OnUpload  func(resp Response, preview any)
	OnError   func(err error, preview any)
}

// Outcome is the result of one accepted file.
type Outcome struct {
	TaskID   string
	File     File
	Response Response
	Err      error
}

// Batch tracks the files accepted by one UploadSelectedFiles call.
type Batch struct {
	accepted int
	skipped  int

	wg   sync.WaitGroup
	done chan struct{}

	mu       sync.Mutex
	outcomes []Outcome
}

// Accepted returns the number of files submitted.
func (b *Batch) Accepted() int { return b.accepted }

// Skipped returns the number of files dropped because capacity ran out.
func (b *Batch) Skipped() int { return b.skipped }

// Wait blocks until every accepted file has an outcome.
func (b *Batch) Wait() { <-b.done }

// Done is closed once every accepted file has an outcome.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Outcomes returns the outcomes recorded so far, in completion order.
func (b *Batch) Outcomes() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Outcome, len(b.outcomes))
	copy(out, b.outcomes)
	return out
}

func (b *Batch) record(o Outcome) {
	b.mu.Lock()
	b.outcomes = append(b.outcomes, o)
	b.mu.Unlock()
}

// Orchestrator runs uploads through an Uploader.
type Orchestrator struct {
	uploader Uploader
}

// NewOrchestrator returns an Orchestrator submitting files to u.
func NewOrchestrator(u Uploader) *Orchestrator {
	return &Orchestrator{uploader: u}
}

// UploadSelectedFiles submits at most remaining files, in selection order.
// A negative remaining means no limit. remaining is decided by the caller at
// selection time; files that complete later still go through the caller's
// own capacity check in OnUpload.
func (o *Orchestrator) UploadSelectedFiles(ctx context.Context, remaining int, files []File, cb Callbacks) *Batch {
	accepted := files
	if remaining >= 0 && len(files) > remaining {
		accepted = files[:remaining]
	}

	b := &Batch{
		accepted: len(accepted),
		skipped:  len(files) - len(accepted),
		done:     make(chan struct{}),
	}

	previews := make([]any, len(accepted))
	for i, file := range accepted {
		if cb.OnPreview != nil {
			previews[i] = cb.OnPreview(file)
		}
	}

	b.wg.Add(len(accepted))
	for i, file := range accepted {
		go o.run(ctx, b, file, previews[i], cb)
	}
	go func() {
		b.wg.Wait()
		close(b.done)
	}()

	return b
}

func (o *Orchestrator) run(ctx context.Context, b *Batch, file File, preview any, cb Callbacks) {
	defer b.wg.Done()

	taskID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, "gallery.upload", trace.WithAttributes(
		attribute.String("upload.task_id", taskID),
		attribute.String("upload.file_name", file.Name()),
		attribute.Int64("upload.file_size", file.Size()),
	))
	defer span.End()

	start := time.Now()
	observeStart(ctx, file.Name(), file.Size())

	resp, err := o.transfer(ctx, file)
	if err == nil {
		err = resp.check()
	}

	b.record(Outcome{TaskID: taskID, File: file, Response: resp, Err: err})

	if err != nil {
		observeError(ctx, file.Name(), file.Size(), start, err)
		observability.LogError(ctx, "upload failed", err, map[string]string{"task_id": taskID})
		if cb.OnError != nil {
			cb.OnError(err, preview)
		}
		return
	}

	observeEnd(ctx, file.Name(), file.Size(), start)
	if cb.OnUpload != nil {
		cb.OnUpload(resp, preview)
	}
}

// transfer calls the uploader, turning a panic into an error.
func (o *Orchestrator) transfer(ctx context.Context, file File) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("uploader panicked: %v", r)
		}
	}()
	return o.uploader.Upload(ctx, file)
}
