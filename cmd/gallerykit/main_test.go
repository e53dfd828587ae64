package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/kdsmith18542/gallerykit/gallery"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	a := &app{v: viper.New(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	setDefaults(a.v)
	return a
}

func TestRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Use != "gallerykit" {
		t.Errorf("Expected Use to be 'gallerykit', got '%s'", cmd.Use)
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, expected := range []string{"serve", "upload", "normalize", "i18n", "storage"} {
		if !names[expected] {
			t.Errorf("Expected subcommand '%s'", expected)
		}
	}

	for _, flag := range []string{"config", "log-level", "log-format"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Expected persistent flag '%s'", flag)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug", "json")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "key", "value")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("Expected JSON output, got %s", buf.String())
	}

	buf.Reset()
	logger, _ = newLogger(&buf, "warn", "text")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn level, got %s", buf.String())
	}

	if _, err := newLogger(&buf, "loud", "text"); err == nil {
		t.Error("Expected error for invalid level")
	}
	if _, err := newLogger(&buf, "info", "xml"); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestSettings_FileAndEnv(t *testing.T) {
	a := newTestApp(t)
	a.configFile = filepath.Join(t.TempDir(), "gallerykit.yaml")
	config := `server:
  addr: ":9000"
storage:
  backend: memory
upload:
  allowed_types: ["image/png"]
gallery:
  max_element_count: 3
block:
  endpoints:
    by_file: http://localhost/upload
  types: image/png
`
	if err := os.WriteFile(a.configFile, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GALLERYKIT_STORAGE_BUCKET", "photos")

	s, err := a.settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Server.Addr != ":9000" || s.Storage.Backend != "memory" || s.Storage.Bucket != "photos" {
		t.Errorf("Unexpected settings: %+v", s)
	}
	if s.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected default shutdown timeout, got %v", s.Server.ShutdownTimeout)
	}
	if opts := s.UploadOptions(); len(opts.AllowedMIMETypes) != 1 || opts.AllowedMIMETypes[0] != "image/png" {
		t.Errorf("Unexpected upload options: %+v", opts)
	}

	cfg := s.BlockConfig()
	if cfg.MaxElementCount != 3 || cfg.Endpoints.ByFile != "http://localhost/upload" || cfg.Types != "image/png" || cfg.Field != "image" {
		t.Errorf("Unexpected block config: %+v", cfg)
	}
	if sc := s.StorageConfig(); sc.Backend != "memory" || sc.BaseURL != "/uploads/" {
		t.Errorf("Unexpected storage config: %+v", sc)
	}
}

func TestSettings_MissingExplicitFile(t *testing.T) {
	a := newTestApp(t)
	a.configFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := a.settings(); err == nil {
		t.Error("Expected error for missing explicit config file")
	}

	a = newTestApp(t)
	if _, err := a.settings(); err != nil {
		t.Errorf("Expected defaults without a config file, got %v", err)
	}
}

func TestNormalizeCmd(t *testing.T) {
	in := `{"style":"carousel","caption":"Trip","files":[{"url":"a.png"},{"url":"  "},{"url":"b.png","caption":"B"},{"url":"c.png"}]}`

	out, _, err := execute(t, in, "normalize", "--max", "2")
	if err != nil {
		t.Fatal(err)
	}

	var data gallery.Data
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("Invalid output %q: %v", out, err)
	}
	if data.Style != gallery.StyleSlider || data.Caption != "Trip" {
		t.Errorf("Unexpected gallery fields: %+v", data)
	}
	if len(data.Files) != 2 || data.Files[0].URL != "a.png" || data.Files[1].Caption != "B" {
		t.Errorf("Unexpected files: %+v", data.Files)
	}
}

func TestNormalizeCmd_File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	os.WriteFile(in, []byte(`{"style":"fit","files":[{"url":"v.mp4"}]}`), 0644)

	if _, _, err := execute(t, "", "normalize", in, "-o", out); err != nil {
		t.Fatal(err)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), `"style": "fit"`) || !strings.Contains(string(written), `"caption": ""`) {
		t.Errorf("Unexpected output: %s", written)
	}

	if _, _, err := execute(t, `{"files":[]}`, "normalize", "--require-files"); err == nil {
		t.Error("Expected error for a gallery without files")
	}
	if _, _, err := execute(t, `not json`, "normalize"); err == nil {
		t.Error("Expected error for invalid input")
	}
}

func TestI18nCmd(t *testing.T) {
	out, _, err := execute(t, "", "i18n", "check")
	if err != nil {
		t.Fatalf("Expected built-in bundles to be complete: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 locale(s) complete") {
		t.Errorf("Unexpected output: %s", out)
	}

	out, _, err = execute(t, "", "i18n", "locales")
	if err != nil || !strings.Contains(out, "en") || !strings.Contains(out, "ru") {
		t.Errorf("Unexpected locales output %q (%v)", out, err)
	}

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "en.toml"), []byte(`"Delete" = "Delete"`+"\n"+`"Fit" = "Fit"`), 0644)
	os.WriteFile(filepath.Join(dir, "de.toml"), []byte(`"Fit" = "Einpassen"`+"\n"+`"Extra" = "x"`), 0644)

	out, _, err = execute(t, "", "i18n", "check", "--dir", dir)
	if err == nil {
		t.Fatal("Expected issues to be reported")
	}
	if !strings.Contains(out, `de: missing key "Delete"`) || !strings.Contains(out, `de: extra key "Extra"`) {
		t.Errorf("Unexpected check output: %s", out)
	}
}

func TestRunServe_Shutdown(t *testing.T) {
	a := newTestApp(t)
	a.v.Set("server.addr", "127.0.0.1:0")
	a.v.Set("storage.backend", "memory")
	s, err := a.settings()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, s, a.logger) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected graceful shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServe_BadStorage(t *testing.T) {
	a := newTestApp(t)
	a.v.Set("storage.backend", "floppy")
	s, _ := a.settings()
	if err := runServe(context.Background(), s, a.logger); err == nil {
		t.Error("Expected error for unknown storage backend")
	}
}
