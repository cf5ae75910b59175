package handler

import (
	"erp-backend/internal/apperr"
	"erp-backend/internal/i18n"
	"erp-backend/internal/middleware"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

var ErrUnsupportedLocale = apperr.Validation("unsupported_locale", "unsupported locale")

type localeRequest struct {
	Locale string `json:"locale"`
}

type localesResponse struct {
	Locales []i18n.Locale `json:"locales"`
	Current string        `json:"current"`
	Default string        `json:"default"`
}

type localeResponse struct {
	Locale    string `json:"locale"`
	Direction string `json:"direction"`
	Message   string `json:"message"`
}

func (a *API) i18nRoutes(r fiber.Router) {
	r.Get("/i18n/locales", a.listLocales)
	r.Post("/i18n/locale", a.setLocale)
}

func (a *API) listLocales(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, localesResponse{
		Locales: a.tr.Locales(),
		Current: middleware.CurrentLocale(c),
		Default: a.tr.Default(),
	})
}

// chooseLocale validates the requested locale and stores it in the session.
func (a *API) chooseLocale(c *fiber.Ctx) (string, error) {
	var req localeRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	code, ok := a.tr.Normalize(req.Locale)
	if !ok {
		return "", ErrUnsupportedLocale.WithParams(map[string]any{"Locale": req.Locale})
	}
	if err := middleware.SetSessionLocale(c, a.store, a.tr, code); err != nil {
		return "", err
	}
	return code, nil
}

func (a *API) localeChanged(c *fiber.Ctx, code string) error {
	return respond(c, fiber.StatusOK, localeResponse{
		Locale:    code,
		Direction: a.tr.Direction(code),
		Message:   a.tr.T(code, "locale.changed", nil),
	})
}

// setLocale switches the session language for anonymous and logged-in callers.
func (a *API) setLocale(c *fiber.Ctx) error {
	code, err := a.chooseLocale(c)
	if err != nil {
		return err
	}
	return a.localeChanged(c, code)
}

// updateOwnLocale also stores the choice on the caller's profile.
func (a *API) updateOwnLocale(c *fiber.Ctx) error {
	code, err := a.chooseLocale(c)
	if err != nil {
		return err
	}
	if _, err := mediatorSend[struct{}](c, a, service.UpdateLocale{UserID: middleware.UserID(c), Locale: code}); err != nil {
		return err
	}
	return a.localeChanged(c, code)
}
