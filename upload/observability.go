package upload

import (
	"context"
	"time"

	"github.com/kdsmith18542/gallerykit/observability"
)

// The upload package reports through the global observer so that both the
// Processor and the Orchestrator show up in the same metrics and traces.

func observeStart(ctx context.Context, name string, size int64) {
	observability.GetObserver().OnUploadStart(ctx, name, size)
}

func observeEnd(ctx context.Context, name string, size int64, start time.Time) {
	observability.GetObserver().OnUploadEnd(ctx, name, size, time.Since(start), true)
}

func observeError(ctx context.Context, name string, size int64, start time.Time, err error) {
	obs := observability.GetObserver()
	obs.OnUploadError(ctx, name, err.Error())
	obs.OnUploadEnd(ctx, name, size, time.Since(start), false)
}
