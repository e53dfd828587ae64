package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

type contextKey string

const uploadResultsKey contextKey = "uploadResults"

// ErrorHandler writes the response for a failed upload.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler answers in the editor response shape. Validation
// failures get HTTP 200 so the widget can show the message; anything else is
// a 500.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if isValidationError(err) {
		status = http.StatusOK
	}
	writeJSON(w, status, Response{Success: false, Message: err.Error()})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrTooLarge) || errors.Is(err, ErrTypeNotAllowed) || errors.Is(err, ErrNoFiles)
}

// Middleware stores the files of fieldName and puts the results in the
// request context for next.
//
// Example:
//
//	mux.Handle("/upload", upload.Middleware(processor, "files", nil)(http.HandlerFunc(
//	    func(w http.ResponseWriter, r *http.Request) {
//	        for _, result := range upload.ResultsFromContext(r.Context()) {
//	            log.Printf("stored %s -> %s", result.OriginalName, result.URL)
//	        }
//	    })))
func Middleware(processor *Processor, fieldName string, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			results, err := processor.Process(r, fieldName)
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), uploadResultsKey, results)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResultsFromContext returns the results stored by Middleware, or nil.
func ResultsFromContext(ctx context.Context) []Result {
	if results, ok := ctx.Value(uploadResultsKey).([]Result); ok {
		return results
	}
	return nil
}

// Handler serves the by-file endpoint: a multipart POST with the file under
// fieldName, answered with {"success":1,"file":{"url":...}}.
func Handler(processor *Processor, fieldName string) http.Handler {
	stored := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := ResultsFromContext(r.Context())
		writeJSON(w, http.StatusOK, Response{Success: true, File: &FileInfo{URL: results[0].URL}})
	})
	return postOnly(Middleware(processor, fieldName, nil)(stored))
}

// FetchHandler serves the by-URL endpoint: a JSON POST {"url": "..."}. The
// remote file is downloaded with client and stored like an uploaded one.
func FetchHandler(processor *Processor, client *http.Client) http.Handler {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return postOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
			return
		}

		result, err := fetch(r.Context(), processor, client, body.URL)
		if err != nil {
			DefaultErrorHandler(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, File: &FileInfo{URL: result.URL}})
	}))
}

func fetch(ctx context.Context, processor *Processor, client *http.Client, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Result{}, fmt.Errorf("%w: unsupported url %q", ErrTypeNotAllowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("failed to fetch %s: %s", rawURL, res.Status)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "remote"
	}
	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = typeByName(name)
	}
	return processor.ProcessFile(ctx, name, contentType, res.ContentLength, res.Body)
}

// PresignHandler answers a JSON POST of PresignOptions with a PresignResult.
func PresignHandler(processor *Processor) http.Handler {
	return postOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var opts PresignOptions
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		result, err := processor.Presign(r.Context(), opts)
		if err != nil {
			status := http.StatusInternalServerError
			if isValidationError(err) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}))
}

func postOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, Response{Message: "method not allowed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
