package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) purchaseRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/purchase-requests", can(model.PrivPurchaseView), handle[service.ListPurchaseRequests, repository.Page[model.PurchaseRequest]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListPurchaseRequests) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.SupplierID, err = optionalUUID(c, "supplier_id")
			return err
		}))
	r.Post("/purchase-requests", can(model.PrivPurchaseManage), handle[service.CreatePurchaseRequest, *model.PurchaseRequest](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreatePurchaseRequest) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/purchase-requests/:id", can(model.PrivPurchaseView), handle[service.GetPurchaseRequest, *model.PurchaseRequest](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPurchaseRequest) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-requests/:id/submit", can(model.PrivPurchaseManage), handle[service.SubmitPurchaseRequest, *model.PurchaseRequest](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.SubmitPurchaseRequest) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-requests/:id/approve", can(model.PrivPurchaseApprove), handle[service.ApprovePurchaseRequest, *model.PurchaseRequest](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ApprovePurchaseRequest) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-requests/:id/reject", can(model.PrivPurchaseApprove), handle[service.RejectPurchaseRequest, *model.PurchaseRequest](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.RejectPurchaseRequest) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-requests/:id/convert", can(model.PrivPurchaseManage), handle[service.ConvertRequestToPurchaseOrder, *model.PurchaseOrder](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.ConvertRequestToPurchaseOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.RequestID, err = idParam(c, "id")
			return err
		}))
	r.Get("/purchase-orders", can(model.PrivPurchaseView), handle[service.ListPurchaseOrders, repository.Page[model.PurchaseOrder]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListPurchaseOrders) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.SupplierID, err = optionalUUID(c, "supplier_id")
			return err
		}))
	r.Post("/purchase-orders", can(model.PrivPurchaseManage), handle[service.CreatePurchaseOrder, *model.PurchaseOrder](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreatePurchaseOrder) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/purchase-orders/:id", can(model.PrivPurchaseView), handle[service.GetPurchaseOrder, *model.PurchaseOrder](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPurchaseOrder) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/purchase-orders/:id", can(model.PrivPurchaseManage), handle[service.UpdatePurchaseOrderLines, *model.PurchaseOrder](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdatePurchaseOrderLines) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-orders/:id/send", can(model.PrivPurchaseManage), handle[service.SendPurchaseOrder, *model.PurchaseOrder](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.SendPurchaseOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-orders/:id/confirm", can(model.PrivPurchaseManage), handle[service.ConfirmPurchaseOrder, *model.PurchaseOrder](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ConfirmPurchaseOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-orders/:id/cancel", can(model.PrivPurchaseManage), handle[service.CancelPurchaseOrder, *model.PurchaseOrder](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.CancelPurchaseOrder) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/purchase-orders/:id/receipts", can(model.PrivStockManage), handle[service.CreatePurchaseReceipt, *model.PurchaseReceipt](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreatePurchaseReceipt) (err error) {
			cmd.Actor = actor(c)
			cmd.PurchaseOrderID, err = idParam(c, "id")
			return err
		}))
	r.Get("/purchase-receipts", can(model.PrivPurchaseView), handle[service.ListPurchaseReceipts, repository.Page[model.PurchaseReceipt]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListPurchaseReceipts) error {
			if err := parseQuery(c, &q.Page); err != nil {
				return err
			}
			var err error
			q.PurchaseOrderID, err = optionalUUID(c, "purchase_order_id")
			return err
		}))
	r.Get("/purchase-receipts/:id", can(model.PrivPurchaseView), handle[service.GetPurchaseReceipt, *model.PurchaseReceipt](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPurchaseReceipt) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Get("/supplier-invoices", can(model.PrivPurchaseView), handle[service.ListSupplierInvoices, repository.Page[model.SupplierInvoice]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListSupplierInvoices) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.SupplierID, err = optionalUUID(c, "supplier_id")
			return err
		}))
	r.Post("/supplier-invoices", can(model.PrivPurchaseManage), handle[service.CreateSupplierInvoice, *model.SupplierInvoice](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateSupplierInvoice) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/supplier-invoices/:id", can(model.PrivPurchaseView), handle[service.GetSupplierInvoice, *model.SupplierInvoice](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetSupplierInvoice) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/supplier-invoices/:id/match", can(model.PrivPurchaseManage), handle[service.MatchSupplierInvoice, *service.MatchSupplierInvoiceResult](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.MatchSupplierInvoice) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/supplier-invoices/:id/approve", can(model.PrivPurchaseApprove), handle[service.ApproveSupplierInvoice, *model.SupplierInvoice](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ApproveSupplierInvoice) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
}
