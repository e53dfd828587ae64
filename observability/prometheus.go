package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusObserver exports gallery and upload events as Prometheus metrics.
type PrometheusObserver struct {
	mutations       *prometheus.CounterVec
	capacityReached prometheus.Counter
	itemCount       prometheus.Gauge
	uploads         *prometheus.CounterVec
	uploadDuration  *prometheus.HistogramVec
	uploadErrors    prometheus.Counter
	storageOps      *prometheus.CounterVec
	storageDuration *prometheus.HistogramVec
	translations    *prometheus.CounterVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil registry falls back to prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusObserver{
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "gallery",
				Name:      "mutations_total",
				Help:      "Gallery state mutations by operation and whether they were applied",
			},
			[]string{"op", "applied"},
		),
		capacityReached: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "gallery",
				Name:      "capacity_reached_total",
				Help:      "Number of times a gallery reached its configured maximum",
			},
		),
		itemCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gallerykit",
				Subsystem: "gallery",
				Name:      "items",
				Help:      "Item count after the most recent mutation",
			},
		),
		uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "upload",
				Name:      "completed_total",
				Help:      "Completed uploads by outcome",
			},
			[]string{"success"},
		),
		uploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gallerykit",
				Subsystem: "upload",
				Name:      "duration_seconds",
				Help:      "Upload duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"success"},
		),
		uploadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "upload",
				Name:      "errors_total",
				Help:      "Upload failures reported to the user",
			},
		),
		storageOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Storage backend operations",
			},
			[]string{"operation", "backend", "success"},
		),
		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gallerykit",
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Storage backend operation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		translations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallerykit",
				Subsystem: "i18n",
				Name:      "lookups_total",
				Help:      "Message lookups by locale and hit/miss",
			},
			[]string{"locale", "found"},
		),
	}
}

func (p *PrometheusObserver) OnGalleryMutation(ctx context.Context, op string, count int, applied bool) {
	p.mutations.WithLabelValues(op, strconv.FormatBool(applied)).Inc()
	p.itemCount.Set(float64(count))
}

func (p *PrometheusObserver) OnCapacityReached(ctx context.Context, count int, max int) {
	p.capacityReached.Inc()
}

func (p *PrometheusObserver) OnUploadStart(ctx context.Context, fileName string, fileSize int64) {}

func (p *PrometheusObserver) OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool) {
	label := strconv.FormatBool(success)
	p.uploads.WithLabelValues(label).Inc()
	p.uploadDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func (p *PrometheusObserver) OnUploadError(ctx context.Context, fileName string, error string) {
	p.uploadErrors.Inc()
}

func (p *PrometheusObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	p.storageOps.WithLabelValues(operation, storageType, strconv.FormatBool(success)).Inc()
	p.storageDuration.WithLabelValues(operation, storageType).Observe(duration.Seconds())
}

func (p *PrometheusObserver) OnTranslation(ctx context.Context, locale string, key string, found bool) {
	p.translations.WithLabelValues(locale, strconv.FormatBool(found)).Inc()
}

// Multi fans every event out to each of the given observers in order.
func Multi(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnGalleryMutation(ctx context.Context, op string, count int, applied bool) {
	for _, o := range m {
		o.OnGalleryMutation(ctx, op, count, applied)
	}
}

func (m multiObserver) OnCapacityReached(ctx context.Context, count int, max int) {
	for _, o := range m {
		o.OnCapacityReached(ctx, count, max)
	}
}

func (m multiObserver) OnUploadStart(ctx context.Context, fileName string, fileSize int64) {
	for _, o := range m {
		o.OnUploadStart(ctx, fileName, fileSize)
	}
}

func (m multiObserver) OnUploadEnd(ctx context.Context, fileName string, fileSize int64, duration time.Duration, success bool) {
	for _, o := range m {
		o.OnUploadEnd(ctx, fileName, fileSize, duration, success)
	}
}

func (m multiObserver) OnUploadError(ctx context.Context, fileName string, error string) {
	for _, o := range m {
		o.OnUploadError(ctx, fileName, error)
	}
}

func (m multiObserver) OnStorageOperation(ctx context.Context, operation string, storageType string, duration time.Duration, success bool) {
	for _, o := range m {
		o.OnStorageOperation(ctx, operation, storageType, duration, success)
	}
}

func (m multiObserver) OnTranslation(ctx context.Context, locale string, key string, found bool) {
	for _, o := range m {
		o.OnTranslation(ctx, locale, key, found)
	}
}
