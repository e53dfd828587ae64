package block

import (
	"sync"

	"github.com/kdsmith18542/gallerykit/gallery"
)

// Action is a custom tune added through Config.Actions.
type Action struct {
	Name   string
	Title  string
	Icon   string
	Toggle bool // Toggle actions keep an on/off state reported by Render
	// Handler runs when the action is activated. It receives the action name.
	Handler func(name string)
}

// TuneState is one entry of the block settings menu.
type TuneState struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}

// Tunes is the block settings menu: the two style tunes followed by the
// configured actions.
type Tunes struct {
	actions  []Action
	onChange func(name string)
	tr       Translator

	mu      sync.Mutex
	toggled map[string]bool
}

var styleTunes = []struct {
	style gallery.Style
	title string
}{
	{gallery.StyleSlider, "Slider"},
	{gallery.StyleFit, "Fit"},
}

// NewTunes returns a menu calling onChange when a style tune is activated.
func NewTunes(actions []Action, onChange func(name string), tr Translator) *Tunes {
	return &Tunes{
		actions:  actions,
		onChange: onChange,
		tr:       tr,
		toggled:  make(map[string]bool),
	}
}

// Render returns the menu entries for data.
func (t *Tunes) Render(data gallery.Data) []TuneState {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := gallery.ParseStyle(string(data.Style))
	states := make([]TuneState, 0, len(styleTunes)+len(t.actions))
	for _, tune := range styleTunes {
		states = append(states, TuneState{
			Name:   string(tune.style),
			Title:  t.tr.T(tune.title, nil),
			Active: current == tune.style,
		})
	}
	for _, action := range t.actions {
		states = append(states, TuneState{
			Name:   action.Name,
			Title:  t.tr.T(action.Title, nil),
			Icon:   action.Icon,
			Active: action.Toggle && t.toggled[action.Name],
		})
	}
	return states
}

// Activate runs the tune called name. It reports false for unknown names.
func (t *Tunes) Activate(name string) bool {
	for _, tune := range styleTunes {
		if name == string(tune.style) {
			if t.onChange != nil {
				t.onChange(name)
			}
			return true
		}
	}

	for _, action := range t.actions {
		if action.Name != name {
			continue
		}
		if action.Toggle {
			t.mu.Lock()
			t.toggled[name] = !t.toggled[name]
			t.mu.Unlock()
		}
		if action.Handler != nil {
			action.Handler(name)
		}
		return true
	}
	return false
}
