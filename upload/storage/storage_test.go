package storage

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Config{Backend: "local", Dir: t.TempDir(), BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("Open local failed: %v", err)
	}
	if _, ok := store.(*ObservableStorage).Unwrap().(*LocalStorage); !ok {
		t.Error("Expected local backend")
	}
	if url := store.URL("a.png"); url != "/uploads/a.png" {
		t.Errorf("Expected '/uploads/a.png', got '%s'", url)
	}

	if _, err := Open(ctx, Config{Backend: "MEMORY"}); err != nil {
		t.Errorf("Open memory failed: %v", err)
	}
	if _, err := Open(ctx, Config{Backend: "local"}); err == nil {
		t.Error("Expected error for local backend without directory")
	}
	if _, err := Open(ctx, Config{Backend: "ftp"}); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestCloudBackends_RequireBucket(t *testing.T) {
	ctx := context.Background()
	if _, err := NewS3(ctx, S3Config{}); err == nil {
		t.Error("Expected error for S3 without bucket")
	}
	if _, err := NewGCS(ctx, GCSConfig{}); err == nil {
		t.Error("Expected error for GCS without bucket")
	}
	if _, err := NewAzureBlob(AzureConfig{AccountName: "acct"}); err == nil {
		t.Error("Expected error for Azure without key and container")
	}
}

func TestS3Storage_URLAndPresign(t *testing.T) {
	ctx := context.Background()
	s3Storage, err := NewS3(ctx, S3Config{
		Bucket:          "gallery",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3 failed: %v", err)
	}
	if url := s3Storage.URL("a.png"); url != "https://gallery.s3.us-east-1.amazonaws.com/a.png" {
		t.Errorf("Unexpected URL: %s", url)
	}

	signed, err := s3Storage.SignedURL(ctx, "a.png", 15*time.Minute)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	if !strings.Contains(signed, "X-Amz-Signature=") || !strings.Contains(signed, "a.png") {
		t.Errorf("Expected a signed URL for a.png, got %s", signed)
	}

	minio, err := NewS3(ctx, S3Config{
		Bucket:          "gallery",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Endpoint:        "http://localhost:9000",
		ForcePathStyle:  true,
	})
	if err != nil {
		t.Fatalf("NewS3 with endpoint failed: %v", err)
	}
	if url := minio.URL("/a.png"); url != "http://localhost:9000/gallery/a.png" {
		t.Errorf("Unexpected endpoint URL: %s", url)
	}

	cdn, _ := NewS3(ctx, S3Config{Bucket: "gallery", Region: "us-east-1", BaseURL: "https://cdn.example.com/"})
	if url := cdn.URL("a.png"); url != "https://cdn.example.com/a.png" {
		t.Errorf("Unexpected base URL: %s", url)
	}
}

func TestAzureStorage_URLAndSAS(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("not-a-real-account-key"))
	azure, err := NewAzureBlob(AzureConfig{AccountName: "acct", AccountKey: key, Container: "gallery"})
	if err != nil {
		t.Fatalf("NewAzureBlob failed: %v", err)
	}
	if url := azure.URL("a.png"); url != "https://acct.blob.core.windows.net/gallery/a.png" {
		t.Errorf("Unexpected URL: %s", url)
	}

	signed, err := azure.SignedURL(context.Background(), "a.png", time.Hour)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	if !strings.HasPrefix(signed, "https://acct.blob.core.windows.net/gallery/a.png?") || !strings.Contains(signed, "sig=") {
		t.Errorf("Unexpected SAS URL: %s", signed)
	}
	if err := azure.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct{ base, key, want string }{
		{"", "a.png", ""},
		{"/uploads", "a.png", "/uploads/a.png"},
		{"/uploads/", "/a.png", "/uploads/a.png"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.key); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}
