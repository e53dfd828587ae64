package block

import "github.com/kdsmith18542/gallerykit/gallery"

// LabelSet holds the translated strings a presenter needs.
type LabelSet struct {
	Button      string `json:"button"`
	Caption     string `json:"caption"`
	ItemCaption string `json:"itemCaption"`
	Delete      string `json:"delete"`
}

// Labels translates the block's UI strings. ButtonContent, when set,
// replaces the add button label untranslated.
func Labels(tr Translator, buttonContent string) LabelSet {
	button := buttonContent
	if button == "" {
		button = tr.T("Select an Image", nil)
	}
	return LabelSet{
		Button:      button,
		Caption:     tr.T("Gallery caption", nil),
		ItemCaption: tr.T("Image caption", nil),
		Delete:      tr.T("Delete", nil),
	}
}

// Counter renders the "count / max" indicator, or "" when it should be hidden.
// Without a translation for the indicator it falls back to the plain form.
func Counter(tr Translator, count, max int) string {
	limit := gallery.Limit{Max: max}
	if !limit.CounterVisible(count) {
		return ""
	}
	if tr != nil {
		if text := tr.T(counterKey, map[string]any{"Count": count, "Max": max}); text != counterKey {
			return text
		}
	}
	return limit.Counter(count)
}

const counterKey = "Remaining"
