// Package web serves the server-rendered back office. Pages read through the
// same mediator queries as the REST API; the session cookie carries the token.
package web

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"erp-backend/internal/apperr"
	"erp-backend/internal/i18n"
	"erp-backend/internal/mediator"
	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/service"
	"erp-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templates embed.FS

const sessionToken = "token"

// Engine builds the template engine. Templates translate with {{t .Locale "id"}}.
func Engine(tr *i18n.Translator) *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("t", func(locale, id string) string { return tr.T(locale, id, nil) })
	engine.AddFunc("money", func(d decimal.Decimal) string { return d.StringFixed(2) })
	engine.AddFunc("add1", func(n int) int { return n + 1 })
	engine.AddFunc("sub1", func(n int) int { return n - 1 })
	return engine
}

type Web struct {
	m     *mediator.Mediator
	tr    *i18n.Translator
	store *session.Store
}

func New(m *mediator.Mediator, tr *i18n.Translator, store *session.Store) *Web {
	return &Web{m: m, tr: tr, store: store}
}

// Routes mounts the pages. Everything but /login requires a session.
func (w *Web) Routes(app fiber.Router) {
	app.Get("/login", w.loginPage)
	app.Post("/login", w.login)

	pages := app.Group("", w.requireSession)
	pages.Post("/logout", w.logout)
	pages.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/products") })
	pages.Get("/products", w.can(model.PrivProductView), w.products)
	pages.Post("/products", w.can(model.PrivProductManage), w.createProduct)
	pages.Get("/customers", w.can(model.PrivCustomerView), w.customers)
	pages.Get("/quotes", w.can(model.PrivQuoteView), w.quotes)
	pages.Get("/orders", w.can(model.PrivOrderView), w.orders)
	pages.Post("/orders/:id/confirm", w.can(model.PrivOrderConfirm), w.confirmOrder)
	pages.Get("/purchase-orders", w.can(model.PrivPurchaseView), w.purchaseOrders)
	pages.Get("/billing/invoices", w.can(model.PrivBillingView), w.invoices)
	pages.Get("/settings", w.settings)
	pages.Post("/settings/locale", w.setLocale)
}

// view is the data every template receives.
func (w *Web) view(c *fiber.Ctx, title string, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Locale"] = middleware.CurrentLocale(c)
	data["Dir"] = middleware.CurrentDirection(c)
	data["User"] = c.Locals(middleware.LocalUserName)
	data["Flash"] = c.Query("flash")
	return data
}

func (w *Web) render(c *fiber.Ctx, name, title string, data fiber.Map) error {
	return c.Render(name, w.view(c, title, data), "layout")
}

// fail renders err on the error page with the status its kind maps to.
func (w *Web) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := w.tr.T(middleware.CurrentLocale(c), "internal_error", nil)
	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
		status = e.Kind.HTTPStatus()
		message = w.tr.Error(middleware.CurrentLocale(c), e)
	} else {
		logger.FromContext(c.UserContext()).Error("page failed", zap.Error(err))
	}
	return c.Status(status).Render("error", w.view(c, "Error", fiber.Map{"Message": message}), "layout")
}

func (w *Web) requireSession(c *fiber.Ctx) error {
	sess, err := w.store.Get(c)
	if err != nil {
		return w.fail(c, err)
	}
	token, _ := sess.Get(sessionToken).(string)
	if token == "" {
		return c.Redirect("/login")
	}
	res, err := mediator.Send[*service.TokenValidationResponse](c.UserContext(), w.m, service.ValidateToken{Token: token})
	if err != nil {
		var e *apperr.Error
		if errors.As(err, &e) && e.Kind == apperr.KindUnauthorized {
			sess.Delete(sessionToken)
			_ = sess.Save()
			return c.Redirect("/login")
		}
		return w.fail(c, err)
	}
	c.Locals(middleware.LocalUserID, res.User.ID.String())
	c.Locals(middleware.LocalUserEmail, res.User.Email)
	c.Locals(middleware.LocalUserName, res.User.FullName)
	c.Locals(middleware.LocalPrivileges, res.Privileges)
	return c.Next()
}

func (w *Web) can(privilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, p := range middleware.Privileges(c) {
			if p == privilege {
				return c.Next()
			}
		}
		return w.fail(c, middleware.ErrForbidden.WithParams(map[string]any{"Privilege": privilege}))
	}
}

func (w *Web) loginPage(c *fiber.Ctx) error {
	return w.render(c, "login", "login.title", nil)
}

func (w *Web) login(c *fiber.Ctx) error {
	req := service.Login{Email: strings.TrimSpace(c.FormValue("email")), Password: c.FormValue("password")}
	res, err := mediator.Send[*service.LoginResponse](c.UserContext(), w.m, req)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
			return c.Status(e.Kind.HTTPStatus()).Render("login", w.view(c, "login.title", fiber.Map{
				"Error": w.tr.Error(middleware.CurrentLocale(c), e),
				"Email": req.Email,
			}), "layout")
		}
		return w.fail(c, err)
	}
	sess, err := w.store.Get(c)
	if err != nil {
		return w.fail(c, err)
	}
	sess.Set(sessionToken, res.Token)
	if res.User.Locale != "" {
		sess.Set(middleware.SessionLocale, res.User.Locale)
	}
	if err := sess.Save(); err != nil {
		return w.fail(c, err)
	}
	return c.Redirect("/products")
}

func (w *Web) logout(c *fiber.Ctx) error {
	if _, err := mediator.Send[struct{}](c.UserContext(), w.m, service.Logout{UserID: middleware.UserID(c)}); err != nil {
		return w.fail(c, err)
	}
	sess, err := w.store.Get(c)
	if err != nil {
		return w.fail(c, err)
	}
	sess.Delete(sessionToken)
	if err := sess.Save(); err != nil {
		return w.fail(c, err)
	}
	return c.Redirect("/login")
}
