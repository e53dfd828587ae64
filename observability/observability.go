// Package observability provides OpenTelemetry and Prometheus integration for gallerykit packages.
//
// Every package reports through a single global Observer. By default the observer
// is a no-op, so the gallery core carries no telemetry cost unless Init or
// SetObserver is called.
//
// Features:
//   - Distributed tracing with OpenTelemetry (span events per gallery mutation and upload)
//   - Prometheus counters and histograms (see NewPrometheusObserver)
//   - Structured logging attached to the current span
//
// Example usage:
//
//	import "github.com/kdsmith18542/gallerykit/observability"
//
//	func main() {
//	    observability.Init(observability.Config{
//	        ServiceName:    "gallery-server",
//	        ServiceVersion: "1.0.0",
//	        Environment:    "production",
//	        EnableTracing:  true,
//	    })
//
//	    ctx, span := observability.StartSpan(context.Background(), "gallery.save")
//	    defer span.End()
//	    observability.LogInfo(ctx, "gallery saved", map[string]string{"files": "3"})
//	}
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gallerykit"

// Config holds the configuration for observability initialization
type Config struct {
	// ServiceName is the name of the service for tracing and metrics
	ServiceName string
	// ServiceVersion is the version of the service
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// EnableTracing enables distributed tracing
	EnableTracing bool
	// EnableMetrics enables metrics collection
	EnableMetrics bool
	// EnableLogging enables structured logging
	EnableLogging bool
}

// Observer receives events from the gallery, upload and storage packages.
type Observer interface {
	// Gallery state
	OnGalleryMutation(ctx context.Context, op string, count int, applied bool)
	OnCapacityReached(ctx context.Context, count int, max int)

	// Uploads
	OnUploadStart(ctx context.Context, fileName string, fileSize int64)
	OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool)
	OnUploadError(ctx context.Context, fileName string, error string)
	OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool)

	// i18n
	OnTranslation(ctx context.Context, locale string, key string, found bool)
}

var (
	observerMu     sync.RWMutex
	globalObserver Observer = &noopObserver{}
)

// Init initializes the observability system with the given configuration
func Init(config Config) error {
	if !config.EnableTracing && !config.EnableMetrics && !config.EnableLogging {
		// Nothing enabled, keep the current observer
		return nil
	}

	if config.EnableTracing || config.EnableMetrics {
		if err := initOpenTelemetry(config); err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	SetObserver(&otelObserver{
		config: config,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	})

	return nil
}

// SetObserver sets a custom observer for observability events.
// Passing nil restores the no-op observer.
func SetObserver(observer Observer) {
	if observer == nil {
		observer = &noopObserver{}
	}
	observerMu.Lock()
	globalObserver = observer
	observerMu.Unlock()
}

// GetObserver returns the current observer instance
func GetObserver() Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return globalObserver
}

// StartSpan starts a new span for tracing
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
	}
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(toAttributes(attributes)...)
	}
}

// LogInfo logs an info-level message with structured data
func LogInfo(ctx context.Context, message string, attributes map[string]string) {
	if observer, ok := GetObserver().(*otelObserver); ok {
		observer.log(ctx, "log.info", message, nil, attributes)
	}
}

// LogError logs an error-level message with structured data
func LogError(ctx context.Context, message string, err error, attributes map[string]string) {
	if observer, ok := GetObserver().(*otelObserver); ok {
		observer.log(ctx, "log.error", message, err, attributes)
	}
}

func toAttributes(attributes map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

func durationMillis(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Microseconds())/1000.0)
}

// noopObserver is a no-operation observer that does nothing
type noopObserver struct{}

func (n *noopObserver) OnGalleryMutation(ctx context.Context, op string, count int, applied bool) {}
func (n *noopObserver) OnCapacityReached(ctx context.Context, count int, max int)                 {}
func (n *noopObserver) OnUploadStart(ctx context.Context, fileName string, fileSize int64)        {}
func (n *noopObserver) OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool) {
}
func (n *noopObserver) OnUploadError(ctx context.Context, fileName string, error string) {}
func (n *noopObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
}
func (n *noopObserver) OnTranslation(ctx context.Context, locale string, key string, found bool) {}

// otelObserver implements Observer using OpenTelemetry
type otelObserver struct {
	config Config
	tracer trace.Tracer
	meter  metric.Meter
}

func (o *otelObserver) OnGalleryMutation(ctx context.Context, op string, count int, applied bool) {
	AddSpanEvent(ctx, "gallery.mutation", map[string]string{
		"op":      op,
		"count":   fmt.Sprintf("%d", count),
		"applied": fmt.Sprintf("%t", applied),
	})
}

func (o *otelObserver) OnCapacityReached(ctx context.Context, count int, max int) {
	AddSpanEvent(ctx, "gallery.capacity.reached", map[string]string{
		"count": fmt.Sprintf("%d", count),
		"max":   fmt.Sprintf("%d", max),
	})
}

func (o *otelObserver) OnUploadStart(ctx context.Context, fileName string, fileSize int64) {
	_, span := o.tracer.Start(ctx, "upload.start", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int64("file.size", fileSize),
	))
	span.End()
}

func (o *otelObserver) OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool) {
	AddSpanEvent(ctx, "upload.completed", map[string]string{
		"file.name":   fileName,
		"file.size":   fmt.Sprintf("%d", fileSize),
		"success":     fmt.Sprintf("%t", success),
		"duration.ms": durationMillis(duration),
	})
}

func (o *otelObserver) OnUploadError(ctx context.Context, fileName string, error string) {
	AddSpanEvent(ctx, "upload.error", map[string]string{
		"file.name": fileName,
		"error":     error,
	})
}

func (o *otelObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	AddSpanEvent(ctx, "storage.operation", map[string]string{
		"operation":    operation,
		"storage.type": storageType,
		"success":      fmt.Sprintf("%t", success),
		"duration.ms":  durationMillis(duration),
	})
}

func (o *otelObserver) OnTranslation(ctx context.Context, locale string, key string, found bool) {
	AddSpanEvent(ctx, "i18n.translation", map[string]string{
		"locale": locale,
		"key":    key,
		"found":  fmt.Sprintf("%t", found),
	})
}

func (o *otelObserver) log(ctx context.Context, event string, message string, err error, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(attributes)+2)
	attrs = append(attrs, attribute.String("message", message))
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	attrs = append(attrs, toAttributes(attributes)...)
	span.AddEvent(event, trace.WithAttributes(attrs...))
}

// initOpenTelemetry installs tracer and meter providers for the service.
// Exporters are left to the host application.
func initOpenTelemetry(config Config) error {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableTracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if config.EnableMetrics {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
	}

	return nil
}
