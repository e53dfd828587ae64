package block

import (
	"testing"

	"github.com/kdsmith18542/gallerykit/gallery"
	"github.com/kdsmith18542/gallerykit/i18n"
)

func TestTunes_StyleAndActions(t *testing.T) {
	var handled []string
	b, err := New(Params{
		Config: Config{
			Uploader: echoUploader(),
			Actions: []Action{
				{Name: "border", Title: "Border", Toggle: true, Handler: func(name string) { handled = append(handled, name) }},
				{Name: "refresh", Title: "Refresh", Handler: func(name string) { handled = append(handled, name) }},
			},
		},
		Translator: i18n.Default().Translator("ru"),
	})
	if err != nil {
		t.Fatal(err)
	}
	tunes := b.Tunes()

	states := tunes.Render(b.Save())
	if len(states) != 4 {
		t.Fatalf("Expected 4 tunes, got %d", len(states))
	}
	if states[0].Name != "slider" || !states[0].Active || states[1].Active {
		t.Errorf("Expected slider active by default, got %+v", states[:2])
	}
	if states[0].Title != "Слайдер" {
		t.Errorf("Expected translated title, got %s", states[0].Title)
	}

	if !tunes.Activate("fit") || b.Save().Style != gallery.StyleFit {
		t.Error("Expected fit tune to switch the style")
	}
	tunes.Activate("border")
	tunes.Activate("refresh")
	if tunes.Activate("missing") {
		t.Error("Expected unknown tune to report false")
	}

	states = tunes.Render(b.Save())
	if !states[1].Active || !states[2].Active || states[3].Active {
		t.Errorf("Unexpected active states: %+v", states)
	}
	if len(handled) != 2 || handled[0] != "border" || handled[1] != "refresh" {
		t.Errorf("Unexpected handler calls: %v", handled)
	}

	tunes.Activate("border")
	if tunes.Render(b.Save())[2].Active {
		t.Error("Expected toggle action to switch off")
	}
}

func TestLabels(t *testing.T) {
	ru := i18n.Default().Translator("ru")
	labels := Labels(ru, "")
	if labels.Button != "Выберите изображение" || labels.Delete != "Удалить" {
		t.Errorf("Unexpected labels: %+v", labels)
	}
	if Labels(ru, "<b>Add</b>").Button != "<b>Add</b>" {
		t.Error("Expected ButtonContent to override the button label")
	}

	en := i18n.Default().Translator("en")
	if got := Counter(en, 2, 5); got != "2 / 5" {
		t.Errorf("Expected '2 / 5', got '%s'", got)
	}
	if Counter(en, 0, 5) != "" || Counter(en, 3, 0) != "" {
		t.Error("Expected hidden counter at zero items or without limit")
	}
}

func TestCounter_UntranslatedFallback(t *testing.T) {
	empty := i18n.NewManagerEmpty().Translator("")
	if got := Counter(empty, 2, 5); got != "2 / 5" {
		t.Errorf("Expected plain '2 / 5' without a bundle, got '%s'", got)
	}
	if got := Counter(nil, 3, 4); got != "3 / 4" {
		t.Errorf("Expected plain '3 / 4' without a translator, got '%s'", got)
	}
	if Counter(empty, 0, 5) != "" {
		t.Error("Expected hidden counter at zero items")
	}
}
