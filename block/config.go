package block

import (
	"errors"

	"github.com/kdsmith18542/gallerykit/upload"
)

// Config holds the options a gallery block recognizes.
type Config struct {
	Endpoints                upload.Endpoints  `json:"endpoints" mapstructure:"endpoints"`
	AdditionalRequestData    map[string]string `json:"additionalRequestData,omitempty" mapstructure:"additional_request_data"`
	AdditionalRequestHeaders map[string]string `json:"additionalRequestHeaders,omitempty" mapstructure:"additional_request_headers"`
	Field                    string            `json:"field,omitempty" mapstructure:"field"`
	Types                    string            `json:"types,omitempty" mapstructure:"types"`
	ButtonContent            string            `json:"buttonContent,omitempty" mapstructure:"button_content"`
	MaxElementCount          int               `json:"maxElementCount,omitempty" mapstructure:"max_element_count"`

	// Uploader replaces the HTTP transport built from Endpoints.
	Uploader upload.Uploader `json:"-" mapstructure:"-"`
	// Actions are extra tunes shown after the style tunes.
	Actions []Action `json:"-" mapstructure:"-"`
}

const (
	DefaultField = "image"
	DefaultTypes = "image/*"
)

// Normalize returns c with defaults applied. A negative MaxElementCount
// becomes 0 (unlimited).
func (c Config) Normalize() Config {
	if c.Field == "" {
		c.Field = DefaultField
	}
	if c.Types == "" {
		c.Types = DefaultTypes
	}
	if c.MaxElementCount < 0 {
		c.MaxElementCount = 0
	}
	return c
}

// uploader returns the configured transport wrapped by the type filter.
func (c Config) uploader() (upload.Uploader, error) {
	u := c.Uploader
	if u == nil {
		if c.Endpoints.ByFile == "" {
			return nil, errors.New("block: no uploader or byFile endpoint configured")
		}
		u = upload.NewHTTPUploader(upload.HTTPConfig{
			Endpoints:                c.Endpoints,
			Field:                    c.Field,
			AdditionalRequestData:    c.AdditionalRequestData,
			AdditionalRequestHeaders: c.AdditionalRequestHeaders,
		})
	}
	return upload.TypeFilter(c.Types, u), nil
}
