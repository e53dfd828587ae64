package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kdsmith18542/gallerykit/upload/storage"
)

func TestHTTPUploader_AgainstHandler(t *testing.T) {
	processor := NewProcessor(storage.NewMemory("/uploads/"), Options{AllowedMIMETypes: []string{"image/*"}})
	var gotHeader, gotExtra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		r.ParseMultipartForm(1 << 20)
		gotExtra = r.FormValue("album")
		Handler(processor, "photo").ServeHTTP(w, r)
	}))
	defer server.Close()

	uploader := NewHTTPUploader(HTTPConfig{
		Endpoints:                Endpoints{ByFile: server.URL},
		Field:                    "photo",
		AdditionalRequestData:    map[string]string{"album": "summer"},
		AdditionalRequestHeaders: map[string]string{"Authorization": "Bearer t"},
	})

	resp, err := uploader.Upload(context.Background(), NewFileFromBytes("a.png", "image/png", []byte("png")))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !resp.Valid() || !strings.HasPrefix(resp.File.URL, "/uploads/") {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if gotHeader != "Bearer t" || gotExtra != "summer" {
		t.Errorf("Expected extra header and field, got %q %q", gotHeader, gotExtra)
	}

	resp, err = uploader.Upload(context.Background(), NewFileFromBytes("a.pdf", "application/pdf", []byte("pdf")))
	if err != nil {
		t.Fatalf("Expected decoded failure response, got error %v", err)
	}
	if resp.Success || resp.Message == "" {
		t.Errorf("Expected rejected response with message, got %+v", resp)
	}
}

func TestHTTPUploader_DefaultField(t *testing.T) {
	var field string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		for name := range r.MultipartForm.File {
			field = name
		}
		w.Write([]byte(`{"success":1,"file":{"url":"x"}}`))
	}))
	defer server.Close()

	NewHTTPUploader(HTTPConfig{Endpoints: Endpoints{ByFile: server.URL}}).
		Upload(context.Background(), NewFileFromBytes("a.png", "image/png", []byte("x")))
	if field != "image" {
		t.Errorf("Expected default field 'image', got %q", field)
	}
}

func TestHTTPUploader_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			http.Error(w, "gateway down", http.StatusBadGateway)
		case "/garbage":
			w.Write([]byte("<html>"))
		}
	}))
	defer server.Close()

	file := NewFileFromBytes("a.png", "image/png", []byte("x"))

	_, err := NewHTTPUploader(HTTPConfig{Endpoints: Endpoints{ByFile: server.URL + "/broken"}}).Upload(context.Background(), file)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("Expected status error, got %v", err)
	}

	_, err = NewHTTPUploader(HTTPConfig{Endpoints: Endpoints{ByFile: server.URL + "/garbage"}}).Upload(context.Background(), file)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}

	if _, err := NewHTTPUploader(HTTPConfig{}).Upload(context.Background(), file); err == nil {
		t.Error("Expected error without endpoint")
	}
}

func TestHTTPUploader_UploadByURL(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		w.Write([]byte(`{"success":true,"file":{"url":"https://cdn/x.png"}}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(HTTPConfig{
		Endpoints:             Endpoints{ByURL: server.URL},
		AdditionalRequestData: map[string]string{"album": "summer"},
	})
	resp, err := uploader.UploadByURL(context.Background(), "https://example.com/x.png")
	if err != nil || !resp.Valid() {
		t.Fatalf("UploadByURL failed: %+v %v", resp, err)
	}
	if body["url"] != "https://example.com/x.png" || body["album"] != "summer" {
		t.Errorf("Unexpected request body: %v", body)
	}
}

func TestFlag(t *testing.T) {
	for input, want := range map[string]bool{
		`{"success":1}`: true, `{"success":true}`: true, `{"success":"1"}`: true,
		`{"success":0}`: false, `{"success":false}`: false, `{"success":null}`: false, `{}`: false,
	} {
		var resp Response
		if err := json.Unmarshal([]byte(input), &resp); err != nil {
			t.Errorf("Unmarshal(%s) failed: %v", input, err)
			continue
		}
		if bool(resp.Success) != want {
			t.Errorf("Unmarshal(%s) = %v, want %v", input, resp.Success, want)
		}
	}

	var resp Response
	if err := json.Unmarshal([]byte(`{"success":"maybe"}`), &resp); err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestNewFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/photo.JPG"
	if err := writeFile(path, "jpeg"); err != nil {
		t.Fatal(err)
	}

	file, err := NewFileFromPath(path)
	if err != nil {
		t.Fatalf("NewFileFromPath failed: %v", err)
	}
	if file.Name() != "photo.JPG" || file.ContentType() != "image/jpeg" || file.Size() != 4 {
		t.Errorf("Unexpected file: %s %s %d", file.Name(), file.ContentType(), file.Size())
	}
	rc, _ := file.Open()
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "jpeg" {
		t.Errorf("Unexpected content %q", data)
	}

	if _, err := NewFileFromPath(dir); err == nil {
		t.Error("Expected error for directory")
	}
	if NewFileFromBytes("blob", "", nil).ContentType() != "application/octet-stream" {
		t.Error("Expected octet-stream for unknown extension")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
