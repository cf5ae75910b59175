package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) partnerRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/customers", can(model.PrivCustomerView), handle[service.ListCustomers, repository.Page[model.Customer]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListCustomers) error {
			return parseQuery(c, &q.Filter, &q.Page)
		}))
	r.Post("/customers", can(model.PrivCustomerManage), handle[service.CreateCustomer, *model.Customer](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateCustomer) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/customers/:id", can(model.PrivCustomerView), handle[service.GetCustomer, *model.Customer](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetCustomer) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/customers/:id", can(model.PrivCustomerManage), handle[service.UpdateCustomer, *model.Customer](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateCustomer) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Delete("/customers/:id", can(model.PrivCustomerManage), handle[service.ArchiveCustomer, *model.Customer](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ArchiveCustomer) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/customers/:id/price-list", can(model.PrivPricingManage), handle[service.AssignCustomerPriceList, *model.Customer](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.AssignCustomerPriceList) (err error) {
			cmd.Actor = actor(c)
			cmd.CustomerID, err = idParam(c, "id")
			return err
		}))
	a.ownedRoutes(r, "customers", can(model.PrivCustomerManage))

	r.Get("/suppliers", can(model.PrivSupplierView), handle[service.ListSuppliers, repository.Page[model.Supplier]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListSuppliers) error {
			return parseQuery(c, &q.Filter, &q.Page)
		}))
	r.Post("/suppliers", can(model.PrivSupplierManage), handle[service.CreateSupplier, *model.Supplier](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateSupplier) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/suppliers/:id", can(model.PrivSupplierView), handle[service.GetSupplier, *model.Supplier](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetSupplier) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/suppliers/:id", can(model.PrivSupplierManage), handle[service.UpdateSupplier, *model.Supplier](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateSupplier) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Delete("/suppliers/:id", can(model.PrivSupplierManage), handle[service.ArchiveSupplier, *model.Supplier](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ArchiveSupplier) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	a.ownedRoutes(r, "suppliers", can(model.PrivSupplierManage))
}

// ownedRoutes mounts the address and contact endpoints of one partner kind.
func (a *API) ownedRoutes(r fiber.Router, owner string, guard fiber.Handler) {
	r.Post("/"+owner+"/:id/addresses", guard, handle[service.AddPartnerAddress, *model.Address](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.AddPartnerAddress) (err error) {
			cmd.Actor = actor(c)
			cmd.OwnerType = owner
			cmd.OwnerID, err = idParam(c, "id")
			return err
		}))
	r.Post("/"+owner+"/:id/contacts", guard, handle[service.AddPartnerContact, *model.Contact](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.AddPartnerContact) (err error) {
			cmd.Actor = actor(c)
			cmd.OwnerType = owner
			cmd.OwnerID, err = idParam(c, "id")
			return err
		}))
}
