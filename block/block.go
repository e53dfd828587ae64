// Package block is the gallery block: it wires user intents, the upload
// orchestrator and the gallery state to a Presenter.
//
// Example:
//
//	b, err := block.New(block.Params{
//	    Data:      saved,
//	    Config:    block.Config{Endpoints: upload.Endpoints{ByFile: "/uploadFile"}, MaxElementCount: 10},
//	    Presenter: view,
//	    Notifier:  toasts,
//	})
//	b.Rendered()
//	batch := b.SelectFiles(ctx, files)
//	batch.Wait()
//	data := b.Save()
package block

import (
	"context"
	"log/slog"

	"github.com/kdsmith18542/gallerykit/gallery"
	"github.com/kdsmith18542/gallerykit/i18n"
	"github.com/kdsmith18542/gallerykit/upload"
)

// UploadFailedMessage is the notification shown when an upload fails.
const UploadFailedMessage = "Couldn’t upload image. Please try another."

// Params are the inputs of New.
type Params struct {
	Data       gallery.Data
	Config     Config
	Presenter  Presenter    // default: renders nothing
	Notifier   Notifier     // default: drops notifications
	Translator Translator   // default: bundled English strings
	Logger     *slog.Logger // default: slog.Default()
	ReadOnly   bool
}

// Block is one gallery block instance.
type Block struct {
	config       Config
	gallery      *gallery.Gallery
	orchestrator *upload.Orchestrator
	tunes        *Tunes
	presenter    Presenter
	notifier     Notifier
	translator   Translator
	logger       *slog.Logger
	readOnly     bool
}

// New builds a block and loads p.Data into it. Outside read-only mode a
// transport is required: either Config.Uploader or Config.Endpoints.ByFile.
func New(p Params) (*Block, error) {
	cfg := p.Config.Normalize()

	b := &Block{
		config:     cfg,
		presenter:  p.Presenter,
		notifier:   p.Notifier,
		translator: p.Translator,
		logger:     p.Logger,
		readOnly:   p.ReadOnly,
	}
	if b.presenter == nil {
		b.presenter = nopPresenter{}
	}
	if b.notifier == nil {
		b.notifier = NotifierFunc(func(Notification) {})
	}
	if b.translator == nil {
		b.translator = i18n.Default().Translator("")
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	if !b.readOnly {
		uploader, err := cfg.uploader()
		if err != nil {
			return nil, err
		}
		b.orchestrator = upload.NewOrchestrator(uploader)
	}

	b.gallery = gallery.New(b.presenter, gallery.Options{MaxElementCount: cfg.MaxElementCount})
	b.tunes = NewTunes(cfg.Actions, func(name string) { b.ToggleStyle(name) }, b.translator)
	b.gallery.ReplaceAll(p.Data)
	return b, nil
}

// Gallery returns the underlying gallery state.
func (b *Block) Gallery() *gallery.Gallery { return b.gallery }

// Tunes returns the settings menu.
func (b *Block) Tunes() *Tunes { return b.tunes }

// Config returns the normalized configuration.
func (b *Block) Config() Config { return b.config }

// ReadOnly reports whether intents are ignored.
func (b *Block) ReadOnly() bool { return b.readOnly }

// Labels returns the translated UI strings.
func (b *Block) Labels() LabelSet { return Labels(b.translator, b.config.ButtonContent) }

// SelectFiles uploads the selected files. Capacity is computed now, so at most
// max - count files are submitted. Each uploaded file is appended when its
// upload finishes, in completion order. In read-only mode every file is skipped.
func (b *Block) SelectFiles(ctx context.Context, files []upload.File) *upload.Batch {
	if b.readOnly {
		return upload.NewOrchestrator(nil).UploadSelectedFiles(ctx, 0, files, upload.Callbacks{})
	}

	remaining, _ := b.gallery.Remaining()
	return b.orchestrator.UploadSelectedFiles(ctx, remaining, files, upload.Callbacks{
		OnPreview: b.presenter.GetPreloader,
		OnUpload:  b.onUpload,
		OnError:   b.uploadingFailed,
	})
}

func (b *Block) onUpload(resp upload.Response, preview any) {
	b.presenter.RemovePreloader(preview)
	item := gallery.Item{URL: resp.File.URL, Caption: resp.File.Caption}
	// CapacityExceeded is not a failure: another upload took the last slot.
	if b.gallery.Append(item) == gallery.Rejected {
		b.uploadingFailed(upload.ErrMalformedResponse, nil)
	}
}

func (b *Block) uploadingFailed(err error, preview any) {
	if preview != nil {
		b.presenter.RemovePreloader(preview)
	}
	b.logger.Error("gallery: uploading failed", "error", err)
	b.notifier.Show(Notification{
		Message: b.translator.T(UploadFailedMessage, nil),
		Style:   "error",
	})
}

// DeleteFile removes the item at index.
func (b *Block) DeleteFile(index int) bool {
	if b.readOnly {
		return false
	}
	return b.gallery.DeleteAt(index)
}

// MoveFile handles a finished drag from one position to another.
func (b *Block) MoveFile(from, to int) bool {
	if b.readOnly || from == to {
		return false
	}
	return b.gallery.Move(from, to)
}

// EditCaption sets the caption of the item at index.
func (b *Block) EditCaption(index int, text string) bool {
	if b.readOnly {
		return false
	}
	return b.gallery.EditItemCaption(index, text)
}

// EditGalleryCaption sets the gallery caption.
func (b *Block) EditGalleryCaption(text string) {
	if b.readOnly {
		return
	}
	b.gallery.SetCaption(text)
}

// ToggleStyle switches the display style and returns the resulting style.
func (b *Block) ToggleStyle(name string) gallery.Style {
	if b.readOnly {
		return b.gallery.Style()
	}
	return b.gallery.SetStyle(name)
}

// Rendered is called once the presenter has drawn the block.
func (b *Block) Rendered() {
	b.gallery.RefreshCapacity()
}

// Save returns the current data.
func (b *Block) Save() gallery.Data {
	return b.gallery.Serialize()
}

// SetData replaces the block content.
func (b *Block) SetData(data gallery.Data) {
	b.gallery.ReplaceAll(data)
}

// Validate reports whether data is worth saving: it must hold at least one file.
func Validate(data gallery.Data) bool {
	return len(data.Files) > 0
}

// Validate reports whether data is worth saving.
func (b *Block) Validate(data gallery.Data) bool {
	return Validate(data)
}
