package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdsmith18542/gallerykit/block"
	"github.com/kdsmith18542/gallerykit/gallery"
	"github.com/kdsmith18542/gallerykit/i18n"
	"github.com/kdsmith18542/gallerykit/upload"
	"github.com/kdsmith18542/gallerykit/upload/storage"
)

// routes holds what NewRouter mounts.
type routes struct {
	Processor       *upload.Processor
	Storage         storage.Storage
	I18n            *i18n.Manager
	Gatherer        prometheus.Gatherer // nil disables /metrics
	Logger          *slog.Logger
	Field           string
	ObjectPrefix    string // URL prefix objects are served under, e.g. "/uploads/"
	MaxElementCount int
}

// NewRouter builds the HTTP API.
//
// Routes:
//   - POST /uploadFile - multipart upload (the block's byFile endpoint)
//   - POST /fetchUrl - store a remote file (the block's byUrl endpoint)
//   - POST /presign - signed URL for direct-to-storage uploads
//   - GET /labels - translated block strings, locale from ?locale, cookie or Accept-Language
//   - GET /files - stored keys, when the backend can list
//   - GET, DELETE <ObjectPrefix>{key} - stored objects, for the local and memory backends
//   - GET /metrics - Prometheus metrics
//   - GET /health - liveness probe
func NewRouter(rt routes) http.Handler {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	if rt.I18n == nil {
		rt.I18n = i18n.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(rt.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Handle("/uploadFile", upload.Handler(rt.Processor, rt.Field))
	r.Handle("/fetchUrl", upload.FetchHandler(rt.Processor, nil))
	r.Handle("/presign", upload.PresignHandler(rt.Processor))

	r.With(i18n.LocaleDetector(rt.I18n)).Get("/labels", labelsHandler(rt.MaxElementCount))
	r.Get("/files", listHandler(rt.Storage))

	if rt.ObjectPrefix != "" && servesObjects(rt.Storage) {
		r.Route(path.Clean(rt.ObjectPrefix), func(r chi.Router) {
			r.Get("/{key}", objectHandler(rt.Storage))
			r.Delete("/{key}", deleteHandler(rt.Storage))
		})
	}

	if rt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

type labelsResponse struct {
	Locale  string            `json:"locale"`
	Labels  block.LabelSet    `json:"labels"`
	Counter string            `json:"counter,omitempty"`
	Tunes   []block.TuneState `json:"tunes"`
}

// labelsHandler answers the strings a presenter needs. ?count=N adds the
// capacity counter for a gallery holding N items.
func labelsHandler(maxElementCount int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr := i18n.TranslatorFromContext(r.Context())
		if tr == nil {
			tr = i18n.Default().Translator("")
		}

		res := labelsResponse{
			Locale: tr.Locale(),
			Labels: block.Labels(tr, ""),
			Tunes:  block.NewTunes(nil, nil, tr).Render(gallery.Data{}),
		}
		if count, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil {
			res.Counter = block.Counter(tr, count, maxElementCount)
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func listHandler(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lister, ok := store.(storage.Lister)
		if !ok {
			http.Error(w, "listing not supported", http.StatusNotImplemented)
			return
		}
		keys, err := lister.List(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
	}
}

// unwrap strips decorators such as storage.ObservableStorage.
func unwrap(store storage.Storage) storage.Storage {
	for {
		u, ok := store.(interface{ Unwrap() storage.Storage })
		if !ok {
			return store
		}
		store = u.Unwrap()
	}
}

func servesObjects(store storage.Storage) bool {
	switch unwrap(store).(type) {
	case *storage.LocalStorage, *storage.MemoryStorage:
		return true
	}
	return false
}

func objectHandler(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		var (
			body        io.Reader
			contentType string
		)
		switch s := unwrap(store).(type) {
		case *storage.LocalStorage:
			rc, err := s.Open(key)
			if err != nil {
				objectError(w, r, err)
				return
			}
			defer rc.Close()
			body, contentType = rc, mime.TypeByExtension(path.Ext(key))
		case *storage.MemoryStorage:
			data, ct, err := s.Get(key)
			if err != nil {
				objectError(w, r, err)
				return
			}
			body, contentType = bytes.NewReader(data), ct
		}

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		io.Copy(w, body)
	}
}

func deleteHandler(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
			objectError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func objectError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
