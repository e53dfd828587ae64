package i18n

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// TranslatorContextKey is the request context key LocaleDetector stores the Translator under.
const TranslatorContextKey contextKey = "gallerykit_translator"

// LocaleDetector returns middleware that picks a locale per request and puts
// its Translator in the request context.
//
// Locale detection order:
//  1. Query parameter: ?locale=ru
//  2. Cookie: locale=ru
//  3. Accept-Language header: Accept-Language: ru-RU,ru;q=0.9,en;q=0.8
//  4. Default locale
func LocaleDetector(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			translator := manager.Translator(manager.Detect(r))
			ctx := context.WithValue(r.Context(), TranslatorContextKey, translator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Detect returns the best loaded locale for r, or "" when nothing matches.
func (m *Manager) Detect(r *http.Request) string {
	if code := r.URL.Query().Get("locale"); code != "" && m.HasLocale(code) {
		return code
	}
	if cookie, err := r.Cookie("locale"); err == nil && m.HasLocale(cookie.Value) {
		return cookie.Value
	}
	return m.parseAcceptLanguage(r.Header.Get("Accept-Language"))
}

func (m *Manager) parseAcceptLanguage(acceptLang string) string {
	for _, lang := range strings.Split(acceptLang, ",") {
		tag := strings.TrimSpace(strings.Split(lang, ";")[0])
		if tag == "" {
			continue
		}
		if m.HasLocale(tag) {
			return tag
		}
		if base := strings.Split(tag, "-")[0]; m.HasLocale(base) {
			return base
		}
	}
	return ""
}

// TranslatorFromContext returns the Translator stored by LocaleDetector, or nil.
func TranslatorFromContext(ctx context.Context) *Translator {
	if t, ok := ctx.Value(TranslatorContextKey).(*Translator); ok {
		return t
	}
	return nil
}
