package i18n

import (
	"testing"

	"erp-backend/internal/apperr"
)

func newTranslator(t *testing.T, def string) *Translator {
	t.Helper()
	tr, err := New(def)
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	return tr
}

func TestNegotiatePriority(t *testing.T) {
	tr := newTranslator(t, "en")
	cases := []struct {
		name   string
		accept string
		in     []string
		want   string
	}{
		{"query wins", "fr", []string{"ar", "fr", "en"}, "ar"},
		{"session next", "", []string{"", "fr-FR", "en"}, "fr"},
		{"profile next", "", []string{"", "", "fr"}, "fr"},
		{"unknown skipped", "", []string{"de", "", ""}, "en"},
		{"default before header", "fr", nil, "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.Negotiate(tc.accept, tc.in...); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}

	open := newTranslator(t, "")
	if got := open.Negotiate("de-DE,fr;q=0.8"); got != "fr" {
		t.Fatalf("without a default Accept-Language should decide, got %s", got)
	}
}

func TestDirection(t *testing.T) {
	tr := newTranslator(t, "en")
	if tr.Direction("ar") != RTL || tr.Direction("fr") != LTR || tr.Direction("xx") != LTR {
		t.Fatalf("unexpected directions")
	}
}

func TestErrorTranslation(t *testing.T) {
	tr := newTranslator(t, "en")
	err := apperr.Rule("insufficient_stock", "insufficient stock available").
		WithParams(map[string]any{"Requested": "4", "Available": "3"})

	if got := tr.Error("fr", err); got != "Stock insuffisant : demandé 4, disponible 3" {
		t.Fatalf("unexpected french message %q", got)
	}
	if got := tr.Error("ar", err); got != "Insufficient stock: requested 4, available 3" {
		t.Fatalf("arabic should fall back to english, got %q", got)
	}
	unknown := apperr.Rule("not_in_catalog", "plain english")
	if got := tr.Error("fr", unknown); got != "plain english" {
		t.Fatalf("expected default message, got %q", got)
	}
}

func TestRejectsUnknownDefault(t *testing.T) {
	if _, err := New("xx"); err == nil {
		t.Fatalf("expected error for unknown default locale")
	}
}
