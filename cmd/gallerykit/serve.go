package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kdsmith18542/gallerykit/i18n"
	"github.com/kdsmith18542/gallerykit/observability"
	"github.com/kdsmith18542/gallerykit/upload"
	"github.com/kdsmith18542/gallerykit/upload/storage"
)

func ServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload endpoints a gallery block posts to",
		Long: `Serve the byFile and byUrl upload endpoints, presigned uploads, translated
block labels and Prometheus metrics.

Examples:
  # Local storage under ./uploads, served at /uploads/
  gallerykit serve

  # MinIO
  GALLERYKIT_STORAGE_BUCKET=gallery gallerykit serve --storage s3 \
    --storage-endpoint http://localhost:9000`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd.Flags(), map[string]string{
				"server.addr":               "addr",
				"storage.backend":           "storage",
				"storage.dir":               "dir",
				"storage.base_url":          "base-url",
				"storage.endpoint":          "storage-endpoint",
				"gallery.max_element_count": "max",
				"i18n.dir":                  "locales",
				"i18n.watch":                "watch",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, s, a.logger)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "Listen address")
	flags.String("storage", "local", "Storage backend: local, memory, s3, gcs or azure")
	flags.String("dir", "./uploads", "Directory for the local backend")
	flags.String("base-url", "/uploads/", "Public URL prefix of stored objects")
	flags.String("storage-endpoint", "", "Custom endpoint for S3-compatible services")
	flags.Int("max", 0, "Maximum gallery items reported by /labels (0 = unlimited)")
	flags.String("locales", "", "Directory of TOML locale bundles (default: built-in)")
	flags.Bool("watch", false, "Reload locale bundles when they change")
	return cmd
}

// runServe serves until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, s Settings, logger *slog.Logger) error {
	store, err := storage.Open(ctx, s.StorageConfig())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	manager, err := loadLocales(s.I18n)
	if err != nil {
		return err
	}
	if s.I18n.Dir != "" && s.I18n.Watch {
		if err := manager.Watch(ctx, s.I18n.Dir); err != nil {
			return fmt.Errorf("failed to watch locales: %w", err)
		}
	}

	reg, err := setupObservability(s)
	if err != nil {
		return err
	}
	defer observability.SetObserver(nil)

	processor := upload.NewProcessor(store, s.UploadOptions())
	processor.OnSuccess(func(ctx context.Context, result upload.Result) {
		logger.Info("file stored", "name", result.OriginalName, "key", result.Path, "size", result.Size)
	})
	processor.OnError(func(ctx context.Context, result upload.Result, err error) {
		logger.Warn("upload rejected", "name", result.OriginalName, "error", err)
	})

	rt := routes{
		Processor:       processor,
		Storage:         store,
		I18n:            manager,
		Logger:          logger,
		Field:           s.Server.Field,
		ObjectPrefix:    objectPrefix(s.Storage.BaseURL),
		MaxElementCount: s.Gallery.MaxElementCount,
	}
	if reg != nil {
		rt.Gatherer = reg
	}

	server := &http.Server{
		Addr:         s.Server.Addr,
		Handler:      NewRouter(rt),
		ReadTimeout:  s.Server.ReadTimeout,
		WriteTimeout: s.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.Server.Addr, "storage", s.Storage.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}
}

// setupObservability installs the Prometheus observer, plus OpenTelemetry when
// telemetry is enabled. It returns nil when metrics are disabled.
func setupObservability(s Settings) (*prometheus.Registry, error) {
	var observers []observability.Observer

	if s.Telemetry.Enabled {
		err := observability.Init(observability.Config{
			ServiceName:    "gallerykit",
			ServiceVersion: version,
			Environment:    s.Telemetry.Environment,
			EnableTracing:  true,
			EnableMetrics:  true,
			EnableLogging:  true,
		})
		if err != nil {
			return nil, err
		}
		observers = append(observers, observability.GetObserver())
	}

	var reg *prometheus.Registry
	if s.Server.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observers = append(observers, observability.NewPrometheusObserver(reg))
	}

	if len(observers) > 0 {
		observability.SetObserver(observability.Multi(observers...))
	}
	return reg, nil
}

func loadLocales(s I18nSettings) (*i18n.Manager, error) {
	if s.Dir == "" {
		return i18n.Default(), nil
	}
	manager, err := i18n.NewManager(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	if s.Locale != "" {
		manager.SetDefaultLocale(s.Locale)
	}
	return manager, nil
}

// objectPrefix returns the route objects are served under, or "" when the
// base URL points elsewhere.
func objectPrefix(baseURL string) string {
	if !strings.HasPrefix(baseURL, "/") || baseURL == "/" {
		return ""
	}
	return baseURL
}
