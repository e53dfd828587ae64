package i18n

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads bundles in dir whenever a .toml file is written or created,
// until ctx is done. A bundle that fails to parse is logged and the previous
// version stays active.
func (m *Manager) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if filepath.Ext(event.Name) != ".toml" {
					continue
				}
				m.reload(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("i18n: watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (m *Manager) reload(path string) {
	code := localeCode(path)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("i18n: failed to read locale", "locale", code, "error", err)
		return
	}
	if err := m.LoadBundle(code, data); err != nil {
		slog.Warn("i18n: failed to reload locale", "locale", code, "error", err)
		return
	}
	slog.Info("i18n: reloaded locale", "locale", code)
}
