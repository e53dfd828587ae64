package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/gallerykit/block"
	"github.com/kdsmith18542/gallerykit/gallery"
	"github.com/kdsmith18542/gallerykit/i18n"
	"github.com/kdsmith18542/gallerykit/upload"
)

func UploadCmd(a *app) *cobra.Command {
	var (
		dataFile string
		outFile  string
		caption  string
		locale   string
		headers  map[string]string
		formData map[string]string
	)

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload files into a gallery the way the block does",
		Long: `Upload files to a byFile endpoint and append them to a gallery, honoring the
capacity limit and the accepted types. The resulting gallery data is written as JSON.

Examples:
  gallerykit upload --endpoint http://localhost:8080/uploadFile a.png b.png
  gallerykit upload --data gallery.json --max 5 --out gallery.json c.png`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd.Flags(), map[string]string{
				"block.endpoints.by_file":   "endpoint",
				"block.field":               "field",
				"block.types":               "types",
				"gallery.max_element_count": "max",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}

			data, err := readData(dataFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			files := make([]upload.File, 0, len(args))
			for _, path := range args {
				file, err := upload.NewFileFromPath(path)
				if err != nil {
					return err
				}
				files = append(files, file)
			}

			cfg := s.BlockConfig()
			cfg.AdditionalRequestHeaders = mergeMaps(cfg.AdditionalRequestHeaders, headers)
			cfg.AdditionalRequestData = mergeMaps(cfg.AdditionalRequestData, formData)

			view := &terminalPresenter{w: cmd.ErrOrStderr()}
			b, err := block.New(block.Params{
				Data:       data,
				Config:     cfg,
				Presenter:  view,
				Notifier:   view,
				Translator: i18n.Default().Translator(locale),
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}
			b.Rendered()
			if caption != "" {
				b.EditGalleryCaption(caption)
			}

			batch := b.SelectFiles(cmd.Context(), files)
			batch.Wait()

			failed := 0
			for _, outcome := range batch.Outcomes() {
				if outcome.Err != nil {
					failed++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "uploaded %d of %d, %d failed, %d skipped\n",
				batch.Accepted()-failed, len(files), failed, batch.Skipped())

			return writeData(b.Save(), outFile, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("endpoint", "", "byFile upload endpoint")
	flags.String("field", block.DefaultField, "Multipart field name")
	flags.String("types", block.DefaultTypes, "Accepted MIME types, comma separated")
	flags.Int("max", 0, "Maximum gallery items (0 = unlimited)")
	flags.StringVar(&dataFile, "data", "", "Existing gallery JSON to append to (- for stdin)")
	flags.StringVarP(&outFile, "out", "o", "", "Write the gallery JSON here instead of stdout")
	flags.StringVar(&caption, "caption", "", "Gallery caption")
	flags.StringVar(&locale, "locale", "", "Locale of notifications")
	flags.StringToStringVar(&headers, "header", nil, "Additional request header, key=value")
	flags.StringToStringVar(&formData, "form", nil, "Additional multipart field, key=value")
	return cmd
}

// terminalPresenter renders the block as progress lines.
type terminalPresenter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *terminalPresenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *terminalPresenter) AppendImage(item gallery.Item) {
	p.printf("added %s %s", item.Kind(), item.URL)
}

func (p *terminalPresenter) UpdateLimitCounter(count, max int) {
	if max > 0 {
		p.printf("%d / %d", count, max)
	}
}

func (p *terminalPresenter) ShowAddControl() {}

func (p *terminalPresenter) HideAddControl() { p.printf("gallery is full") }

func (p *terminalPresenter) FillCaption(text string) {}

func (p *terminalPresenter) Clear() {}

func (p *terminalPresenter) GetPreloader(file upload.File) any {
	p.printf("uploading %s", file.Name())
	return file.Name()
}

func (p *terminalPresenter) RemovePreloader(preview any) {}

func (p *terminalPresenter) Show(n block.Notification) {
	p.printf("%s: %s", n.Style, n.Message)
}

func readData(path string, stdin io.Reader) (gallery.Data, error) {
	var data gallery.Data
	if path == "" {
		return data, nil
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return data, fmt.Errorf("failed to open gallery data: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return data, fmt.Errorf("failed to decode gallery data: %w", err)
	}
	return data, nil
}

func writeData(data gallery.Data, path string, stdout io.Writer) error {
	if data.Files == nil {
		data.Files = []gallery.Item{}
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode gallery data: %w", err)
	}
	encoded = append(encoded, '\n')

	if path == "" || path == "-" {
		_, err = stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write gallery data: %w", err)
	}
	return nil
}

func mergeMaps(base, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
