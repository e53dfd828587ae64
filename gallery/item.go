package gallery

import (
	"net/url"
	"strings"
)

// Style is the gallery-level display mode.
type Style string

const (
	// StyleSlider shows one item at a time with navigation. It is the default.
	StyleSlider Style = "slider"
	// StyleFit lays all items out to fit the block width.
	StyleFit Style = "fit"
)

// ParseStyle maps arbitrary input onto a Style. Only the literal "fit" selects
// StyleFit; anything else, including the empty string and unknown legacy
// values, is StyleSlider.
func ParseStyle(name string) Style {
	if name == string(StyleFit) {
		return StyleFit
	}
	return StyleSlider
}

// String returns the string representation of Style
func (s Style) String() string {
	return string(s)
}

// Kind tells presenters whether an item should render as an image or a video.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item is one gallery entry.
type Item struct {
	// ID is assigned when the item enters a Gallery and is never serialized.
	ID      string `json:"-"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Kind reports KindVideo for URLs whose path ends in ".mp4".
func (i Item) Kind() Kind {
	p := i.URL
	if u, err := url.Parse(i.URL); err == nil && u.Path != "" {
		p = u.Path
	}
	if strings.HasSuffix(p, ".mp4") {
		return KindVideo
	}
	return KindImage
}

// Data is the persisted/exchanged shape of a gallery block.
//
//	{"style": "slider", "caption": "", "files": [{"url": "...", "caption": ""}]}
//
// Unknown style values survive decoding; they are normalized when the data is
// applied to a Gallery.
type Data struct {
	Style   Style  `json:"style"`
	Caption string `json:"caption"`
	Files   []Item `json:"files"`
}
