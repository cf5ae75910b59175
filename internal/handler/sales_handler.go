package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) salesRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/quotes", can(model.PrivQuoteView), handle[service.ListQuotes, repository.Page[model.Quote]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListQuotes) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.CustomerID, err = optionalUUID(c, "customer_id")
			return err
		}))
	r.Post("/quotes", can(model.PrivQuoteManage), handle[service.CreateQuote, *model.Quote](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateQuote) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/quotes/:id", can(model.PrivQuoteView), handle[service.GetQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetQuote) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/quotes/:id", can(model.PrivQuoteManage), handle[service.UpdateQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateQuote) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Get("/quotes/:id/versions", can(model.PrivQuoteView), handle[service.ListQuoteVersions, []model.QuoteVersion](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListQuoteVersions) (err error) {
			q.QuoteID, err = idParam(c, "id")
			return err
		}))
	r.Post("/quotes/:id/send", can(model.PrivQuoteManage), handle[service.SendQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.SendQuote) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/quotes/:id/accept", can(model.PrivQuoteManage), handle[service.AcceptQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.AcceptQuote) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/quotes/:id/reject", can(model.PrivQuoteManage), handle[service.RejectQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.RejectQuote) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/quotes/:id/cancel", can(model.PrivQuoteManage), handle[service.CancelQuote, *model.Quote](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.CancelQuote) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/quotes/:id/convert", can(model.PrivOrderManage), handle[service.ConvertQuoteToOrder, *model.Order](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.ConvertQuoteToOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.QuoteID, err = idParam(c, "id")
			return err
		}))
	r.Get("/orders", can(model.PrivOrderView), handle[service.ListOrders, repository.Page[model.Order]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListOrders) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.CustomerID, err = optionalUUID(c, "customer_id")
			return err
		}))
	r.Post("/orders", can(model.PrivOrderManage), handle[service.CreateOrder, *model.Order](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateOrder) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/orders/:id", can(model.PrivOrderView), handle[service.GetOrder, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetOrder) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/orders/:id", can(model.PrivOrderManage), handle[service.UpdateOrderLines, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateOrderLines) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/orders/:id/confirm", can(model.PrivOrderConfirm), handle[service.ConfirmOrder, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ConfirmOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/orders/:id/ready", can(model.PrivOrderManage), handle[service.MarkOrderReady, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.MarkOrderReady) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/orders/:id/ship", can(model.PrivOrderManage), handle[service.ShipOrder, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ShipOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/orders/:id/deliver", can(model.PrivOrderManage), handle[service.DeliverOrder, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.DeliverOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/orders/:id/cancel", can(model.PrivOrderManage), handle[service.CancelOrder, *model.Order](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.CancelOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
}
