// Package gallery owns the authoritative state of a gallery block: the ordered
// list of items, the gallery caption and the display style.
//
// All mutations go through a Gallery, which enforces the capacity limit and
// tells its Presenter what to render. Invalid input (empty URLs, stale
// indices) and appends beyond capacity are refused silently: the operation
// reports that nothing happened and the state is left untouched.
//
// Example:
//
//	g := gallery.New(presenter, gallery.Options{MaxElementCount: 2})
//	g.Append(gallery.Item{URL: "a.png"})  // Appended
//	g.Append(gallery.Item{URL: "b.png"})  // Appended
//	g.Append(gallery.Item{URL: "c.png"})  // CapacityExceeded
//	g.Move(0, 5)                          // clamps to Move(0, 1)
//	data := g.Serialize()
package gallery

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kdsmith18542/gallerykit/observability"
)

// AppendResult describes what Append did.
type AppendResult int

const (
	// Appended means the item was added at the end of the list.
	Appended AppendResult = iota
	// CapacityExceeded means the gallery was already full; nothing changed.
	CapacityExceeded
	// Rejected means the item was invalid (empty URL); nothing changed.
	Rejected
)

func (r AppendResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case CapacityExceeded:
		return "capacity_exceeded"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Options configures a Gallery. Zero values mean no limit.
type Options struct {
	MaxElementCount int // Maximum number of items (0 = unlimited)
}

// Gallery is the ordered item list plus caption and style.
// It is safe for concurrent use; every operation is atomic with respect to the others.
type Gallery struct {
	mu        sync.Mutex
	items     []Item
	caption   string
	style     Style
	limit     Limit
	presenter Presenter
	newID     func() string
}

// New creates an empty gallery. A nil presenter is replaced by NopPresenter.
func New(presenter Presenter, options Options) *Gallery {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &Gallery{
		items:     make([]Item, 0),
		style:     StyleSlider,
		limit:     Limit{Max: max(options.MaxElementCount, 0)},
		presenter: presenter,
		newID:     uuid.NewString,
	}
}

// Limit returns the capacity policy of the gallery.
func (g *Gallery) Limit() Limit {
	return g.limit
}

// Append adds item at the end of the list.
func (g *Gallery) Append(item Item) AppendResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.appendLocked(item)
}

func (g *Gallery) appendLocked(item Item) AppendResult {
	ctx := context.Background()
	if strings.TrimSpace(item.URL) == "" {
		observability.GetObserver().OnGalleryMutation(ctx, "append", len(g.items), false)
		return Rejected
	}
	if !g.limit.Allows(len(g.items)) {
		observability.GetObserver().OnGalleryMutation(ctx, "append", len(g.items), false)
		return CapacityExceeded
	}

	item.ID = g.newID()
	g.items = append(g.items, item)
	g.presenter.AppendImage(item)
	g.refreshCapacityLocked()

	observability.GetObserver().OnGalleryMutation(ctx, "append", len(g.items), true)
	return Appended
}

// Move relocates the item at from to position to. A to at or beyond the end
// is clamped to the last index, a negative to is clamped to 0. Returns false
// when from does not hold an item.
func (g *Gallery) Move(from, to int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked(from, to)
}

func (g *Gallery) moveLocked(from, to int) bool {
	n := len(g.items)
	if from < 0 || from >= n {
		observability.GetObserver().OnGalleryMutation(context.Background(), "move", n, false)
		return false
	}
	if to >= n {
		to = n - 1
	}
	if to < 0 {
		to = 0
	}

	item := g.items[from]
	if from < to {
		copy(g.items[from:to], g.items[from+1:to+1])
	} else if from > to {
		copy(g.items[to+1:from+1], g.items[to:from])
	}
	g.items[to] = item

	observability.GetObserver().OnGalleryMutation(context.Background(), "move", n, true)
	return true
}

// DeleteAt removes the item at index. Returns false for a stale index.
func (g *Gallery) DeleteAt(index int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleteLocked(index)
}

func (g *Gallery) deleteLocked(index int) bool {
	if index < 0 || index >= len(g.items) {
		observability.GetObserver().OnGalleryMutation(context.Background(), "delete", len(g.items), false)
		return false
	}
	g.items = append(g.items[:index], g.items[index+1:]...)
	g.refreshCapacityLocked()

	observability.GetObserver().OnGalleryMutation(context.Background(), "delete", len(g.items), true)
	return true
}

// SetCaption sets the gallery caption.
func (g *Gallery) SetCaption(text string) {
	g.mu.Lock()
	g.caption = text
	g.mu.Unlock()
}

// SetStyle normalizes name with ParseStyle and applies it.
func (g *Gallery) SetStyle(name string) Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.style = ParseStyle(name)
	return g.style
}

// EditItemCaption stores the caption the user typed for the item at index.
func (g *Gallery) EditItemCaption(index int, text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.items) {
		return false
	}
	g.items[index].Caption = text
	return true
}

// IndexOf returns the current index of the item with the given ID, or -1.
func (g *Gallery) IndexOf(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.indexLocked(id)
}

func (g *Gallery) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range g.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// DeleteByID removes the item with the given ID wherever it currently is.
func (g *Gallery) DeleteByID(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleteLocked(g.indexLocked(id))
}

// MoveByID moves the item with the given ID to position to (clamped like Move).
func (g *Gallery) MoveByID(id string, to int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moveLocked(g.indexLocked(id), to)
}

// EditItemCaptionByID sets the caption of the item with the given ID.
func (g *Gallery) EditItemCaptionByID(id, text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexLocked(id)
	if i < 0 {
		return false
	}
	g.items[i].Caption = text
	return true
}

// ReplaceAll resets the gallery to data. Items are replayed one by one through
// Append, so validation and capacity apply exactly as for new uploads.
func (g *Gallery) ReplaceAll(data Data) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.items = make([]Item, 0, len(data.Files))
	g.presenter.Clear()
	g.refreshCapacityLocked()
	for _, item := range data.Files {
		g.appendLocked(Item{URL: item.URL, Caption: item.Caption})
	}

	g.caption = data.Caption
	g.presenter.FillCaption(g.caption)
	g.style = ParseStyle(string(data.Style))
}

// Serialize returns a copy of the current state in its exchange shape.
func (g *Gallery) Serialize() Data {
	g.mu.Lock()
	defer g.mu.Unlock()
	files := make([]Item, len(g.items))
	copy(files, g.items)
	return Data{Style: g.style, Caption: g.caption, Files: files}
}

// Items returns a copy of the current items, IDs included.
func (g *Gallery) Items() []Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Item, len(g.items))
	copy(out, g.items)
	return out
}

// Len returns the number of items.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// Caption returns the gallery caption.
func (g *Gallery) Caption() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.caption
}

// Style returns the current display style.
func (g *Gallery) Style() Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.style
}

// Remaining returns how many more items fit and whether a limit is configured.
// When limited is false, n is Unlimited.
func (g *Gallery) Remaining() (n int, limited bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit.Remaining(len(g.items)), g.limit.Limited()
}

// Full reports whether the configured maximum has been reached.
func (g *Gallery) Full() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit.Reached(len(g.items))
}

// RefreshCapacity pushes the current counter and add-control state to the presenter.
func (g *Gallery) RefreshCapacity() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshCapacityLocked()
}

func (g *Gallery) refreshCapacityLocked() {
	count := len(g.items)
	g.presenter.UpdateLimitCounter(count, g.limit.Max)
	if g.limit.Reached(count) {
		g.presenter.HideAddControl()
		observability.GetObserver().OnCapacityReached(context.Background(), count, g.limit.Max)
		return
	}
	g.presenter.ShowAddControl()
}
