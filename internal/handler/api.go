package handler

import (
	"erp-backend/internal/export"
	"erp-backend/internal/i18n"
	"erp-backend/internal/mediator"
	"erp-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// API adapts HTTP requests to mediator commands and queries.
type API struct {
	m     *mediator.Mediator
	tr    *i18n.Translator
	store *session.Store
	siren string
}

func NewAPI(m *mediator.Mediator, tr *i18n.Translator, store *session.Store, siren string) *API {
	return &API{m: m, tr: tr, store: store, siren: siren}
}

// prepareFunc fills what the body cannot carry: path ids and the caller.
type prepareFunc[Req any] func(c *fiber.Ctx, req *Req) error

// handle binds the JSON body into Req, runs prepare, dispatches and wraps the
// result in an envelope.
func handle[Req any, Res any](a *API, status int, prepare prepareFunc[Req]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req Req
		if err := bind(c, &req); err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(c, &req); err != nil {
				return err
			}
		}
		res, err := mediator.Send[Res](c.UserContext(), a.m, req)
		if err != nil {
			return err
		}
		return respond(c, status, res)
	}
}

// download dispatches a query producing a file and streams it as an attachment.
func download[Req any](a *API, prepare prepareFunc[Req]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req Req
		if err := prepare(c, &req); err != nil {
			return err
		}
		file, err := mediator.Send[*export.File](c.UserContext(), a.m, req)
		if err != nil {
			return err
		}
		c.Attachment(file.Name)
		c.Set(fiber.HeaderContentType, file.ContentType)
		return c.Send(file.Data)
	}
}

func actor(c *fiber.Ctx) string {
	return middleware.Actor(c)
}

// parseQuery decodes the query string into each destination.
func parseQuery(c *fiber.Ctx, dst ...any) error {
	for _, d := range dst {
		if err := c.QueryParser(d); err != nil {
			return ErrBadRequest.Wrap(err)
		}
	}
	return nil
}

func mediatorSend[Res any](c *fiber.Ctx, a *API, req any) (Res, error) {
	return mediator.Send[Res](c.UserContext(), a.m, req)
}
