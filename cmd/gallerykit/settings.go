package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/kdsmith18542/gallerykit/block"
	"github.com/kdsmith18542/gallerykit/upload"
	"github.com/kdsmith18542/gallerykit/upload/storage"
)

// Settings is the gallerykit configuration.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags
//  2. Environment variables (GALLERYKIT_*, e.g. GALLERYKIT_STORAGE_BACKEND=s3)
//  3. Configuration file
//  4. Default values
type Settings struct {
	Server    ServerSettings    `mapstructure:"server"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Upload    UploadSettings    `mapstructure:"upload"`
	Gallery   GallerySettings   `mapstructure:"gallery"`
	I18n      I18nSettings      `mapstructure:"i18n"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Block     block.Config      `mapstructure:"block"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	Field           string        `mapstructure:"field"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
}

type StorageSettings struct {
	Backend         string `mapstructure:"backend"`
	Dir             string `mapstructure:"dir"`
	BaseURL         string `mapstructure:"base_url"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	AccountName     string `mapstructure:"account_name"`
	AccountKey      string `mapstructure:"account_key"`
}

type UploadSettings struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	MaxFiles          int      `mapstructure:"max_files"`
	AllowedTypes      []string `mapstructure:"allowed_types"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type GallerySettings struct {
	MaxElementCount int `mapstructure:"max_element_count"`
}

type I18nSettings struct {
	Dir    string `mapstructure:"dir"`
	Watch  bool   `mapstructure:"watch"`
	Locale string `mapstructure:"locale"`
}

type TelemetrySettings struct {
	Enabled     bool   `mapstructure:"enabled"`
	Environment string `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.field", block.DefaultField)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.metrics", true)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "./uploads")
	v.SetDefault("storage.base_url", "/uploads/")
	for _, key := range []string{
		"bucket", "region", "access_key_id", "secret_access_key", "endpoint",
		"project_id", "credentials_file", "account_name", "account_key",
	} {
		v.SetDefault("storage."+key, "")
	}
	v.SetDefault("storage.force_path_style", false)

	v.SetDefault("upload.max_file_size", 10<<20)
	v.SetDefault("upload.max_files", 0)
	v.SetDefault("upload.allowed_types", []string{"image/*", "video/mp4"})
	v.SetDefault("upload.allowed_extensions", []string{})

	v.SetDefault("gallery.max_element_count", 0)

	v.SetDefault("i18n.dir", "")
	v.SetDefault("i18n.watch", false)
	v.SetDefault("i18n.locale", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.environment", "")

	v.SetDefault("block.endpoints.by_file", "")
	v.SetDefault("block.endpoints.by_url", "")
	v.SetDefault("block.field", block.DefaultField)
	v.SetDefault("block.types", block.DefaultTypes)
	v.SetDefault("block.button_content", "")
}

// settings decodes the merged configuration.
func (a *app) settings() (Settings, error) {
	if err := a.load(); err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := a.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return s, nil
}

// StorageConfig converts the storage section for storage.Open.
func (s Settings) StorageConfig() storage.Config {
	return storage.Config{
		Backend:         s.Storage.Backend,
		Dir:             s.Storage.Dir,
		BaseURL:         s.Storage.BaseURL,
		Bucket:          s.Storage.Bucket,
		Region:          s.Storage.Region,
		AccessKeyID:     s.Storage.AccessKeyID,
		SecretAccessKey: s.Storage.SecretAccessKey,
		Endpoint:        s.Storage.Endpoint,
		ForcePathStyle:  s.Storage.ForcePathStyle,
		ProjectID:       s.Storage.ProjectID,
		CredentialsFile: s.Storage.CredentialsFile,
		AccountName:     s.Storage.AccountName,
		AccountKey:      s.Storage.AccountKey,
	}
}

// UploadOptions converts the upload section for upload.NewProcessor.
func (s Settings) UploadOptions() upload.Options {
	return upload.Options{
		MaxFileSize:       s.Upload.MaxFileSize,
		MaxFiles:          s.Upload.MaxFiles,
		AllowedMIMETypes:  s.Upload.AllowedTypes,
		AllowedExtensions: s.Upload.AllowedExtensions,
	}
}

// BlockConfig returns the block section with the gallery capacity applied.
func (s Settings) BlockConfig() block.Config {
	cfg := s.Block
	if s.Gallery.MaxElementCount != 0 {
		cfg.MaxElementCount = s.Gallery.MaxElementCount
	}
	return cfg.Normalize()
}
