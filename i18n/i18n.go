// Package i18n loads TOML message bundles for the gallery block's
// user-visible strings and translates keys per locale.
//
// Each bundle is a file named after its locale code (en.toml, ru.toml) whose
// keys are the English source strings:
//
//	"Gallery caption" = "Подпись галереи"
//	"Remaining" = "{{.Count}} / {{.Max}}"
//
// Nested tables are flattened into dotted keys. Missing keys translate to
// themselves, so an empty Manager is a valid identity translator.
//
// Example:
//
//	manager := i18n.Default()
//	tr := manager.Translator("ru")
//	fmt.Println(tr.T("Delete", nil)) // Удалить
package i18n

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/BurntSushi/toml"

	"github.com/kdsmith18542/gallerykit/observability"
)

// Manager holds the loaded locales. It is safe for concurrent use.
type Manager struct {
	locales        map[string]*Locale
	defaultLocale  string
	fallbackLocale string
	mu             sync.RWMutex
}

// Locale is one loaded bundle.
type Locale struct {
	Code     string
	Messages map[string]string
}

// Translator translates keys for one locale.
type Translator struct {
	code    string
	manager *Manager
}

// NewManagerEmpty returns a Manager without locales.
func NewManagerEmpty() *Manager {
	return &Manager{
		locales:        make(map[string]*Locale),
		defaultLocale:  "en",
		fallbackLocale: "en",
	}
}

// NewManager loads every .toml file in dir.
func NewManager(dir string) (*Manager, error) {
	return NewManagerFromFS(os.DirFS(dir), ".")
}

// NewManagerFromFS loads every .toml file in dir of fsys.
func NewManagerFromFS(fsys fs.FS, dir string) (*Manager, error) {
	m := NewManagerEmpty()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		if err := m.LoadBundle(localeCode(entry.Name()), data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func localeCode(fileName string) string {
	return strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
}

// LoadBundle parses a TOML bundle and installs it as locale code, replacing
// any previous bundle for that code.
func (m *Manager) LoadBundle(code string, data []byte) error {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse locale %s: %w", code, err)
	}
	messages := make(map[string]string)
	if err := flatten("", raw, messages); err != nil {
		return fmt.Errorf("failed to load locale %s: %w", code, err)
	}
	m.AddLocale(code, messages)
	return nil
}

func flatten(prefix string, raw map[string]any, out map[string]string) error {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			out[key] = v
		case map[string]any:
			if err := flatten(key, v, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: expected string, got %T", key, v)
		}
	}
	return nil
}

// AddLocale installs messages as locale code.
func (m *Manager) AddLocale(code string, messages map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locales[code] = &Locale{Code: code, Messages: messages}
}

// SetDefaultLocale sets the locale used when none is requested.
func (m *Manager) SetDefaultLocale(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLocale = code
}

// SetFallbackLocale sets the locale consulted when a key is missing.
func (m *Manager) SetFallbackLocale(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackLocale = code
}

// Locales returns the loaded locale codes, sorted.
func (m *Manager) Locales() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.locales))
	for code := range m.locales {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HasLocale reports whether code is loaded.
func (m *Manager) HasLocale(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locales[code]
	return ok
}

// Translator returns a translator for code. An empty or unknown code uses the
// default locale. "pt-BR" falls back to "pt" when only the base is loaded.
func (m *Manager) Translator(code string) *Translator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Translator{code: m.resolveLocked(code), manager: m}
}

func (m *Manager) resolveLocked(code string) string {
	if _, ok := m.locales[code]; ok {
		return code
	}
	if base, _, found := strings.Cut(code, "-"); found {
		if _, ok := m.locales[base]; ok {
			return base
		}
	}
	return m.defaultLocale
}

// Locale returns the code the translator resolved to.
func (t *Translator) Locale() string {
	if t == nil {
		return ""
	}
	return t.code
}

// T translates key, substituting params with text/template syntax
// ({{.Count}}). A missing key returns the key itself.
func (t *Translator) T(key string, params map[string]any) string {
	if t == nil {
		return substituteParams(key, params)
	}
	message, found := t.lookup(key)
	observability.GetObserver().OnTranslation(context.Background(), t.code, key, found)
	if !found {
		message = key
	}
	return substituteParams(message, params)
}

func (t *Translator) lookup(key string) (string, bool) {
	if t == nil || t.manager == nil {
		return "", false
	}
	m := t.manager
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, code := range []string{t.code, m.fallbackLocale} {
		if locale, ok := m.locales[code]; ok {
			if message, ok := locale.Messages[key]; ok {
				return message, true
			}
		}
	}
	return "", false
}

func substituteParams(message string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(message, "{{") {
		return message
	}
	tmpl, err := template.New("message").Option("missingkey=zero").Parse(message)
	if err != nil {
		return message
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, params); err != nil {
		return message
	}
	return buf.String()
}

// Issue is a difference between a locale and the reference locale.
type Issue struct {
	Locale string
	Key    string
	Kind   string // "missing" or "extra"
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s key %q", i.Locale, i.Kind, i.Key)
}

// Check compares every locale against reference and reports keys missing
// from or unknown to it.
func (m *Manager) Check(reference string) ([]Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref, ok := m.locales[reference]
	if !ok {
		return nil, fmt.Errorf("reference locale %s not loaded", reference)
	}

	var issues []Issue
	codes := make([]string, 0, len(m.locales))
	for code := range m.locales {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if code == reference {
			continue
		}
		messages := m.locales[code].Messages
		for _, key := range sortedKeys(ref.Messages) {
			if _, ok := messages[key]; !ok {
				issues = append(issues, Issue{Locale: code, Key: key, Kind: "missing"})
			}
		}
		for _, key := range sortedKeys(messages) {
			if _, ok := ref.Messages[key]; !ok {
				issues = append(issues, Issue{Locale: code, Key: key, Kind: "extra"})
			}
		}
	}
	return issues, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
