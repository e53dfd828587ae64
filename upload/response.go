package upload

import (
	"bytes"
	"fmt"
	"strings"
)

// Flag is a boolean that also decodes the 1/0 and "1"/"0" forms editor
// endpoints answer with. It encodes as 1 or 0.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.ToLower(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	switch raw {
	case "1", "true":
		*f = true
	case "0", "false", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid success flag %s", data)
	}
	return nil
}

// FileInfo is the stored file as reported by an upload endpoint.
type FileInfo struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Response is the answer of an upload endpoint:
//
//	{"success": 1, "file": {"url": "https://..."}}
type Response struct {
	Success Flag      `json:"success"`
	File    *FileInfo `json:"file,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Valid reports whether r is a success carrying a file URL.
func (r Response) Valid() bool {
	return bool(r.Success) && r.File != nil && strings.TrimSpace(r.File.URL) != ""
}

// check turns a response into the error the orchestrator reports for it.
func (r Response) check() error {
	if r.Valid() {
		return nil
	}
	if r.Success {
		return fmt.Errorf("%w: success without file url", ErrMalformedResponse)
	}
	if r.Message != "" {
		return fmt.Errorf("upload rejected: %s", r.Message)
	}
	return fmt.Errorf("upload rejected by endpoint")
}
