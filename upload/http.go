package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

// Endpoints are the URLs of an editor-style upload backend.
type Endpoints struct {
	ByFile string `json:"byFile,omitempty" mapstructure:"by_file"`
	ByURL  string `json:"byUrl,omitempty" mapstructure:"by_url"`
}

// HTTPConfig configures an HTTPUploader.
type HTTPConfig struct {
	Endpoints                Endpoints
	Field                    string            // multipart field name, default "image"
	AdditionalRequestData    map[string]string // extra form fields (JSON fields for UploadByURL)
	AdditionalRequestHeaders map[string]string
	Client                   *http.Client // default: 60s timeout
}

// HTTPUploader posts files to an endpoint answering with a Response.
type HTTPUploader struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPUploader returns an uploader for config.
//
// Example:
//
//	uploader := upload.NewHTTPUploader(upload.HTTPConfig{
//	    Endpoints: upload.Endpoints{ByFile: "http://localhost:8008/uploadFile"},
//	    AdditionalRequestHeaders: map[string]string{"Authorization": "Bearer token"},
//	})
func NewHTTPUploader(config HTTPConfig) *HTTPUploader {
	if config.Field == "" {
		config.Field = "image"
	}
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPUploader{config: config, client: client}
}

// Upload sends file as multipart/form-data to Endpoints.ByFile.
func (h *HTTPUploader) Upload(ctx context.Context, file File) (Response, error) {
	if h.config.Endpoints.ByFile == "" {
		return Response{}, errors.New("upload: no byFile endpoint configured")
	}

	rc, err := file.Open()
	if err != nil {
		return Response{}, fmt.Errorf("failed to open %s: %w", file.Name(), err)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		defer rc.Close()
		pw.CloseWithError(writeForm(form, h.config, file, rc))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.Endpoints.ByFile, pr)
	if err != nil {
		pr.Close()
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return h.do(req)
}

func writeForm(form *multipart.Writer, config HTTPConfig, file File, content io.Reader) error {
	for _, key := range sortedKeys(config.AdditionalRequestData) {
		if err := form.WriteField(key, config.AdditionalRequestData[key]); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(config.Field), escapeQuotes(file.Name())))
	header.Set("Content-Type", file.ContentType())
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}

// UploadByURL asks Endpoints.ByURL to fetch url itself.
func (h *HTTPUploader) UploadByURL(ctx context.Context, url string) (Response, error) {
	if h.config.Endpoints.ByURL == "" {
		return Response{}, errors.New("upload: no byUrl endpoint configured")
	}

	body := map[string]string{}
	for k, v := range h.config.AdditionalRequestData {
		body[k] = v
	}
	body["url"] = url
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.Endpoints.ByURL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *HTTPUploader) do(req *http.Request) (Response, error) {
	for k, v := range h.config.AdditionalRequestHeaders {
		req.Header.Set(k, v)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to send upload request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read upload response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return Response{}, fmt.Errorf("upload endpoint returned %s", res.Status)
		}
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
