package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) billingRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/invoices", can(model.PrivBillingView), handle[service.ListInvoices, repository.Page[model.Invoice]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListInvoices) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.CustomerID, err = optionalUUID(c, "customer_id")
			return err
		}))
	r.Get("/invoices/overdue", can(model.PrivBillingView), handle[service.ListOverdueInvoices, []service.OverdueInvoice](a, fiber.StatusOK, nil))
	r.Get("/invoices/aging", can(model.PrivBillingView), handle[service.GetAgingReport, *service.AgingReport](a, fiber.StatusOK, nil))
	r.Post("/invoices", can(model.PrivBillingManage), handle[service.CreateInvoiceFromOrder, *model.Invoice](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateInvoiceFromOrder) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/invoices/:id", can(model.PrivBillingView), handle[service.GetInvoice, *model.Invoice](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetInvoice) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/invoices/:id/issue", can(model.PrivBillingManage), handle[service.IssueInvoice, *model.Invoice](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.IssueInvoice) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/invoices/:id/cancel", can(model.PrivBillingManage), handle[service.CancelInvoice, *model.Invoice](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.CancelInvoice) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/payments", can(model.PrivBillingManage), handle[service.RecordPayment, *model.Payment](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.RecordPayment) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/payments/:id", can(model.PrivBillingView), handle[service.GetPayment, *model.Payment](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPayment) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
}
