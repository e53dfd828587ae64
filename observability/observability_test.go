package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type testObserver struct {
	mutations []string
	capacity  int
	uploads   int
	errors    int
	storage   int
	lookups   int
}

func (o *testObserver) OnGalleryMutation(ctx context.Context, op string, count int, applied bool) {
	o.mutations = append(o.mutations, op)
}
func (o *testObserver) OnCapacityReached(ctx context.Context, count int, max int)          { o.capacity++ }
func (o *testObserver) OnUploadStart(ctx context.Context, fileName string, fileSize int64) {}
func (o *testObserver) OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool) {
	o.uploads++
}
func (o *testObserver) OnUploadError(ctx context.Context, fileName string, error string) { o.errors++ }
func (o *testObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	o.storage++
}
func (o *testObserver) OnTranslation(ctx context.Context, locale string, key string, found bool) {
	o.lookups++
}

func TestObservability_Init(t *testing.T) {
	defer SetObserver(nil)

	if err := Init(Config{}); err != nil {
		t.Errorf("Expected no error when no observability enabled, got: %v", err)
	}

	configs := []Config{
		{ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test", EnableTracing: true},
		{ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test", EnableMetrics: true},
		{ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test", EnableLogging: true},
		{ServiceName: "test-service", ServiceVersion: "1.0.0", Environment: "test", EnableTracing: true, EnableMetrics: true, EnableLogging: true},
	}
	for _, cfg := range configs {
		if err := Init(cfg); err != nil {
			t.Errorf("Expected no error for %+v, got: %v", cfg, err)
		}
	}

	if _, ok := GetObserver().(*otelObserver); !ok {
		t.Errorf("Expected otel observer after Init, got %T", GetObserver())
	}
}

func TestObservability_SetAndGetObserver(t *testing.T) {
	defer SetObserver(nil)

	if GetObserver() == nil {
		t.Fatal("Expected default observer to not be nil")
	}

	custom := &testObserver{}
	SetObserver(custom)
	if GetObserver() != custom {
		t.Error("Expected observer to be set to custom observer")
	}

	SetObserver(nil)
	if _, ok := GetObserver().(*noopObserver); !ok {
		t.Errorf("Expected nil to restore the no-op observer, got %T", GetObserver())
	}
}

func TestObservability_StartSpan(t *testing.T) {
	ctx := context.Background()

	spanCtx, span := StartSpan(ctx, "test-operation", trace.WithAttributes(
		attribute.String("test.key", "test.value"),
	))
	if spanCtx == nil {
		t.Error("Expected span context to not be nil")
	}
	if span == nil {
		t.Fatal("Expected span to not be nil")
	}
	span.End()
}

func TestObservability_LoggingWithoutSpan(t *testing.T) {
	defer SetObserver(nil)
	if err := Init(Config{ServiceName: "test", EnableLogging: true}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// No recording span in the context; these must be silent no-ops.
	ctx := context.Background()
	LogInfo(ctx, "gallery saved", map[string]string{"files": "2"})
	LogError(ctx, "upload failed", errors.New("boom"), nil)
	AddSpanEvent(ctx, "event", map[string]string{"k": "v"})
	SetSpanAttributes(ctx, map[string]string{"k": "v"})
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &testObserver{}, &testObserver{}
	m := Multi(a, b)
	ctx := context.Background()

	m.OnGalleryMutation(ctx, "append", 1, true)
	m.OnCapacityReached(ctx, 2, 2)
	m.OnUploadEnd(ctx, "a.png", 10, time.Millisecond, true)
	m.OnUploadError(ctx, "b.png", "boom")
	m.OnStorageOperation(ctx, "put", "memory", time.Millisecond, true)
	m.OnTranslation(ctx, "en", "Delete", true)

	for i, o := range []*testObserver{a, b} {
		if len(o.mutations) != 1 || o.mutations[0] != "append" {
			t.Errorf("observer %d: expected one append mutation, got %v", i, o.mutations)
		}
		if o.capacity != 1 || o.uploads != 1 || o.errors != 1 || o.storage != 1 || o.lookups != 1 {
			t.Errorf("observer %d: unexpected counts %+v", i, o)
		}
	}
}

func TestPrometheusObserver_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusObserver(reg)
	ctx := context.Background()

	p.OnGalleryMutation(ctx, "append", 1, true)
	p.OnGalleryMutation(ctx, "append", 2, true)
	p.OnGalleryMutation(ctx, "append", 2, false)
	p.OnCapacityReached(ctx, 2, 2)
	p.OnUploadEnd(ctx, "a.png", 10, 20*time.Millisecond, true)
	p.OnUploadError(ctx, "b.png", "boom")
	p.OnStorageOperation(ctx, "put", "local", time.Millisecond, false)

	if got := testutil.ToFloat64(p.mutations.WithLabelValues("append", "true")); got != 2 {
		t.Errorf("Expected 2 applied appends, got %v", got)
	}
	if got := testutil.ToFloat64(p.mutations.WithLabelValues("append", "false")); got != 1 {
		t.Errorf("Expected 1 refused append, got %v", got)
	}
	if got := testutil.ToFloat64(p.itemCount); got != 2 {
		t.Errorf("Expected item gauge 2, got %v", got)
	}
	if got := testutil.ToFloat64(p.capacityReached); got != 1 {
		t.Errorf("Expected capacity counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(p.uploads.WithLabelValues("true")); got != 1 {
		t.Errorf("Expected 1 successful upload, got %v", got)
	}
	if got := testutil.ToFloat64(p.uploadErrors); got != 1 {
		t.Errorf("Expected 1 upload error, got %v", got)
	}
	if got := testutil.ToFloat64(p.storageOps.WithLabelValues("put", "local", "false")); got != 1 {
		t.Errorf("Expected 1 failed put, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected registered metric families")
	}
}
