package web

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"erp-backend/internal/i18n"
	"erp-backend/internal/mediator"
	"erp-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	tr, err := i18n.New("")
	if err != nil {
		t.Fatal(err)
	}
	store := session.New()
	app := fiber.New(fiber.Config{Views: Engine(tr)})
	app.Use(middleware.Locale(tr, store, nil))
	New(mediator.New(), tr, store).Routes(app)
	return app
}

func TestLoginPageIsTranslated(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/login?lang=ar", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `dir="rtl"`) || !strings.Contains(string(body), `action="/login"`) {
		t.Fatalf("unexpected page:\n%s", body)
	}
}

func TestPagesRequireSession(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/products", "/orders", "/billing/invoices", "/settings"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusFound || resp.Header.Get(fiber.HeaderLocation) != "/login" {
			t.Fatalf("%s: status %d location %q", path, resp.StatusCode, resp.Header.Get(fiber.HeaderLocation))
		}
	}
}
