// Package i18n holds the message catalogs and the locale negotiation rules.
// Error codes double as message ids so apperr values translate directly.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"strings"

	"erp-backend/internal/apperr"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var catalogs embed.FS

const (
	LTR = "ltr"
	RTL = "rtl"
)

// Locale describes one selectable language.
type Locale struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

var locales = []Locale{
	{Code: "en", Name: "English", Direction: LTR},
	{Code: "fr", Name: "Français", Direction: LTR},
	{Code: "ar", Name: "العربية", Direction: RTL},
}

type Translator struct {
	bundle     *i18n.Bundle
	fallback   string
	configured string
	matcher    language.Matcher
	known      map[string]Locale
}

// New loads the embedded catalogs. An empty default leaves the choice to
// Accept-Language; anything else must be a known locale.
func New(defaultLocale string) (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := catalogs.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(catalogs, "locales/"+e.Name()); err != nil {
			return nil, err
		}
	}

	t := &Translator{bundle: bundle, known: make(map[string]Locale, len(locales))}
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		t.known[l.Code] = l
		tags = append(tags, language.MustParse(l.Code))
	}
	t.matcher = language.NewMatcher(tags)

	t.fallback = "en"
	if defaultLocale != "" {
		code, ok := t.Normalize(defaultLocale)
		if !ok {
			return nil, errors.New("i18n: unknown default locale " + defaultLocale)
		}
		t.fallback, t.configured = code, code
	}
	return t, nil
}

func (t *Translator) Locales() []Locale {
	out := make([]Locale, len(locales))
	copy(out, locales)
	return out
}

func (t *Translator) Default() string {
	return t.fallback
}

// Normalize maps "fr-FR", "FR" or "fr_fr" to a known locale code.
func (t *Translator) Normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", "-")))
	if s == "" {
		return "", false
	}
	if _, ok := t.known[s]; ok {
		return s, true
	}
	base, _, _ := strings.Cut(s, "-")
	if _, ok := t.known[base]; ok {
		return base, true
	}
	return "", false
}

// Direction is rtl for right-to-left scripts and ltr otherwise.
func (t *Translator) Direction(code string) string {
	if l, ok := t.known[code]; ok {
		return l.Direction
	}
	return LTR
}

// FromAcceptLanguage picks the best known locale for an Accept-Language header.
func (t *Translator) FromAcceptLanguage(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return locales[idx].Code, true
}

// Negotiate walks the explicit choices in priority order (query parameter,
// session, user profile), then the configured default, then Accept-Language.
func (t *Translator) Negotiate(acceptLanguage string, choices ...string) string {
	for _, c := range choices {
		if code, ok := t.Normalize(c); ok {
			return code
		}
	}
	if t.configured != "" {
		return t.configured
	}
	if code, ok := t.FromAcceptLanguage(acceptLanguage); ok {
		return code
	}
	return t.fallback
}

// T translates id; unknown ids come back unchanged.
func (t *Translator) T(locale, id string, data map[string]any) string {
	out, err := i18n.NewLocalizer(t.bundle, locale, t.fallback).Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil || out == "" {
		return id
	}
	return out
}

// Error translates an application error by its code, falling back to its
// English message when the catalog has no entry.
func (t *Translator) Error(locale string, err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return t.T(locale, "internal_error", nil)
	}
	out, lerr := i18n.NewLocalizer(t.bundle, locale, t.fallback).Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: e.Code, Other: e.Message},
		TemplateData:   e.Params,
	})
	if lerr != nil || out == "" {
		return e.Message
	}
	return out
}
