package i18n

import (
	"embed"
	"sync"
)

//go:embed locales/*.toml
var bundledLocales embed.FS

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns a Manager with the bundled locales. It panics if the
// bundled files fail to parse, which the package tests rule out.
func Default() *Manager {
	defaultOnce.Do(func() {
		m, err := NewManagerFromFS(bundledLocales, "locales")
		if err != nil {
			panic("i18n: bundled locales: " + err.Error())
		}
		defaultManager = m
	})
	return defaultManager
}
