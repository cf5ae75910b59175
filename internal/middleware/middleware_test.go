package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"erp-backend/internal/apperr"
	"erp-backend/internal/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

func testApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var e *apperr.Error
		if errors.As(err, &e) {
			return c.Status(e.Kind.HTTPStatus()).SendString(e.Code)
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
}

func TestRequirePrivilege(t *testing.T) {
	app := testApp()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalPrivileges, []string{"order:view"})
		return c.Next()
	})
	app.Get("/view", RequirePrivilege("order:view"), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/confirm", RequirePrivilege("order:confirm"), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/any", RequireAnyPrivilege("order:confirm", "order:view"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := map[string]int{"/view": 200, "/confirm": 403, "/any": 200}
	for path, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	app := testApp()
	app.Get("/", RequireAuth(nil, nil), func(c *fiber.Ctx) error { return c.SendString("ok") })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 401 || string(body) != "missing_token" {
		t.Fatalf("expected 401 missing_token, got %d %s", resp.StatusCode, body)
	}
}

func TestLocaleNegotiationPersistsToSession(t *testing.T) {
	tr, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	store := session.New()
	app := testApp()
	app.Use(Locale(tr, store, nil))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CurrentLocale(c) + " " + CurrentDirection(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?lang=ar", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ar rtl" {
		t.Fatalf("expected ar rtl, got %s", body)
	}
	var cookie string
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			cookie = ck.Name + "=" + ck.Value
		}
	}
	if cookie == "" {
		t.Fatalf("expected a session cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Accept-Language", "fr")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "ar rtl" {
		t.Fatalf("session choice should stick, got %s", body)
	}
}
