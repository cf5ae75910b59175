package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-backend/internal/i18n"
	"erp-backend/internal/mediator"
	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/internal/ws"
	"erp-backend/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
	Meta    Meta            `json:"meta"`
}

// newTestApp wires the full API over an in-memory database. The auth stub
// grants the given privileges to a fixed user.
func newTestApp(t *testing.T, privileges ...string) *fiber.App {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	m := mediator.New()
	if err := service.Register(m, service.NewDeps(db, &ws.Recorder{}, nil, nil, time.Minute), nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	tr, err := i18n.New("")
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}
	store := session.New()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(tr)})
	app.Use(middleware.Locale(tr, store, nil))
	auth := func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uuid.NewString())
		c.Locals(middleware.LocalPrivileges, privileges)
		return c.Next()
	}
	NewAPI(m, tr, store, "123456789").Routes(app, auth)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
	}
	return resp.StatusCode, env
}

func TestCreateAndFetchProduct(t *testing.T) {
	app := newTestApp(t, model.PrivProductView, model.PrivProductManage)

	status, env := do(t, app, "POST", "/api/v1/products",
		`{"code":"P-1","name":"Widget","price":"12.50","cost":"8","tax_rate":"20","unit_of_measure":"pcs"}`)
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("create: status %d, error %+v", status, env.Error)
	}
	var created model.Product
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if created.Code != "P-1" || created.Price.String() != "12.5" {
		t.Fatalf("unexpected product %+v", created)
	}

	status, env = do(t, app, "GET", "/api/v1/products/"+created.ID.String(), "")
	if status != fiber.StatusOK || !env.Success {
		t.Fatalf("get: status %d, error %+v", status, env.Error)
	}

	status, env = do(t, app, "POST", "/api/v1/products",
		`{"code":"P-1","name":"Again","price":"1","cost":"1","tax_rate":"0"}`)
	if status != fiber.StatusConflict || env.Error == nil || env.Error.Code != "duplicate_code" {
		t.Fatalf("duplicate: status %d, error %+v", status, env.Error)
	}
}

func TestErrorsAreTranslated(t *testing.T) {
	app := newTestApp(t, model.PrivProductView)

	status, env := do(t, app, "GET", "/api/v1/products/not-a-uuid", "", fiber.HeaderAcceptLanguage, "fr-FR,fr;q=0.9")
	if status != fiber.StatusBadRequest {
		t.Fatalf("status %d", status)
	}
	if env.Error.Code != "validation_failed" || !strings.HasPrefix(env.Error.Message, "Le champ id") {
		t.Fatalf("unexpected error %+v", env.Error)
	}
	if env.Meta.Locale != "fr" || env.Meta.Direction != i18n.LTR {
		t.Fatalf("unexpected meta %+v", env.Meta)
	}

	status, env = do(t, app, "GET", "/api/v1/products/"+uuid.NewString(), "", fiber.HeaderAcceptLanguage, "ar")
	if status != fiber.StatusNotFound || env.Error.Code != "product_not_found" || env.Meta.Direction != i18n.RTL {
		t.Fatalf("status %d, error %+v, meta %+v", status, env.Error, env.Meta)
	}
}

func TestRoutesRequirePrivileges(t *testing.T) {
	app := newTestApp(t, model.PrivProductView)

	status, env := do(t, app, "POST", "/api/v1/products", `{"code":"X","name":"X"}`)
	if status != fiber.StatusForbidden || env.Error.Code != "forbidden" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}
	status, _ = do(t, app, "GET", "/api/v1/invoices", "")
	if status != fiber.StatusForbidden {
		t.Fatalf("invoices: status %d", status)
	}
}

func TestLocaleSwitch(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, "POST", "/api/v1/i18n/locale", `{"locale":"ar"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}
	var res localeResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Locale != "ar" || res.Direction != i18n.RTL {
		t.Fatalf("unexpected %+v", res)
	}

	status, env = do(t, app, "POST", "/api/v1/i18n/locale", `{"locale":"de"}`)
	if status != fiber.StatusBadRequest || env.Error.Code != "unsupported_locale" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}

	status, env = do(t, app, "GET", "/api/v1/i18n/locales", "")
	if status != fiber.StatusOK {
		t.Fatalf("locales: status %d", status)
	}
	var list localesResponse
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Locales) != 3 {
		t.Fatalf("want 3 locales, got %d", len(list.Locales))
	}
}
