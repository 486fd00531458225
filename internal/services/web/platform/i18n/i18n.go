// Package i18n resolves the request language and prints localized copy.
package i18n

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "itemdesk_lang"
)

var (
	english             = language.MustParse("en-US")
	brazilianPortuguese = language.MustParse("pt-BR")
	supported           = []language.Tag{english, brazilianPortuguese}
	matcher             = language.NewMatcher(supported)
	messages            = mustBuildCatalog()
)

func mustBuildCatalog() *catalog.Builder {
	builder := catalog.NewBuilder(catalog.Fallback(english))
	for tag, entries := range map[language.Tag]map[string]string{
		english:             messagesEN,
		brazilianPortuguese: messagesPTBR,
	} {
		for key, value := range entries {
			if err := builder.SetString(tag, key, value); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return builder
}

// Default returns the default language tag.
func Default() language.Tag {
	return english
}

// Match returns the supported tag closest to the requested ones.
func Match(requested ...language.Tag) language.Tag {
	_, idx, confidence := matcher.Match(requested...)
	if confidence == language.No {
		return english
	}
	return supported[idx]
}

// ResolveTag picks the language for r from the query parameter, the language
// cookie, then Accept-Language. The bool reports whether the query parameter
// selected it and should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return english, false
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
		if tag, err := language.Parse(raw); err == nil {
			return Match(tag), true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, err := language.Parse(cookie.Value); err == nil {
			return Match(tag), false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...), false
		}
	}
	return english, false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Printer returns a message printer bound to the web catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Match(tag), message.Catalog(messages))
}

// Localizer prints catalog keys for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Localizer for tag.
func New(tag language.Tag) Localizer {
	matched := Match(tag)
	return Localizer{tag: matched, printer: Printer(matched)}
}

// Tag returns the resolved language.
func (l Localizer) Tag() language.Tag {
	return l.tag
}

// T prints key with args, falling back to the key itself when no message is
// registered.
func (l Localizer) T(key string, args ...any) string {
	if l.printer == nil {
		return key
	}
	return l.printer.Sprintf(key, args...)
}

type contextKey struct{}

// WithLocalizer stores the request localizer in ctx.
func WithLocalizer(ctx context.Context, l Localizer) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request localizer, defaulting to English.
func FromContext(ctx context.Context) Localizer {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(Localizer); ok {
			return l
		}
	}
	return New(english)
}

// Middleware resolves the request language and stores its Localizer in the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := ResolveTag(r)
		if persist {
			SetLanguageCookie(w, tag)
		}
		next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), New(tag))))
	})
}
