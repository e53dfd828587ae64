package block

import (
	"github.com/kdsmith18542/gallerykit/gallery"
	"github.com/kdsmith18542/gallerykit/upload"
)

// Presenter renders the block. On top of the gallery rendering contract it
// manages upload previews: GetPreloader shows a placeholder for a file that
// is being uploaded and returns a handle, RemovePreloader drops it again.
type Presenter interface {
	gallery.Presenter
	GetPreloader(file upload.File) any
	RemovePreloader(preview any)
}

// Notification is a transient message shown to the user.
type Notification struct {
	Message string
	Style   string // "error", "success" or "" for neutral
}

// Notifier shows notifications.
type Notifier interface {
	Show(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Show(n Notification) { f(n) }

// Translator translates user-visible strings. *i18n.Translator implements it.
type Translator interface {
	T(key string, params map[string]any) string
}

type nopPresenter struct{ gallery.NopPresenter }

func (nopPresenter) GetPreloader(upload.File) any { return nil }
func (nopPresenter) RemovePreloader(any)          {}
