package web

import (
	"net/url"

	"erp-backend/internal/mediator"
	"erp-backend/internal/middleware"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// listPage runs a paginated query and renders it under name.
func listPage[Req any, T any](w *Web, c *fiber.Ctx, name, title string, build func(page repository.PageRequest, search, status string) Req) error {
	var page repository.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return w.fail(c, err)
	}
	req := build(page, c.Query("search"), c.Query("status"))
	res, err := mediator.Send[repository.Page[T]](c.UserContext(), w.m, req)
	if err != nil {
		return w.fail(c, err)
	}
	return w.render(c, name, title, fiber.Map{
		"Items":  res.Items,
		"Page":   res.Pagination,
		"Search": c.Query("search"),
		"Status": c.Query("status"),
	})
}

func (w *Web) products(c *fiber.Ctx) error {
	return listPage[service.ListProducts, model.Product](w, c, "products", "nav.products",
		func(page repository.PageRequest, search, status string) service.ListProducts {
			return service.ListProducts{Filter: repository.ProductFilter{Search: search, Status: model.ProductStatus(status)}, Page: page}
		})
}

func (w *Web) customers(c *fiber.Ctx) error {
	return listPage[service.ListCustomers, model.Customer](w, c, "customers", "nav.customers",
		func(page repository.PageRequest, search, status string) service.ListCustomers {
			return service.ListCustomers{Filter: repository.PartnerFilter{Search: search, Status: model.PartnerStatus(status)}, Page: page}
		})
}

func (w *Web) quotes(c *fiber.Ctx) error {
	return listPage[service.ListQuotes, model.Quote](w, c, "quotes", "nav.quotes",
		func(page repository.PageRequest, search, status string) service.ListQuotes {
			return service.ListQuotes{Filter: repository.SalesFilter{Search: search, Status: status}, Page: page}
		})
}

func (w *Web) orders(c *fiber.Ctx) error {
	return listPage[service.ListOrders, model.Order](w, c, "orders", "nav.orders",
		func(page repository.PageRequest, search, status string) service.ListOrders {
			return service.ListOrders{Filter: repository.SalesFilter{Search: search, Status: status}, Page: page}
		})
}

func (w *Web) purchaseOrders(c *fiber.Ctx) error {
	return listPage[service.ListPurchaseOrders, model.PurchaseOrder](w, c, "purchase_orders", "nav.purchase_orders",
		func(page repository.PageRequest, search, status string) service.ListPurchaseOrders {
			return service.ListPurchaseOrders{Filter: repository.PurchaseFilter{Search: search, Status: status}, Page: page}
		})
}

func (w *Web) invoices(c *fiber.Ctx) error {
	return listPage[service.ListInvoices, model.Invoice](w, c, "invoices", "nav.invoices",
		func(page repository.PageRequest, search, status string) service.ListInvoices {
			return service.ListInvoices{Filter: repository.InvoiceFilter{Search: search, Status: status}, Page: page}
		})
}

// redirectFlash sends the browser back to path with a translated notice.
func (w *Web) redirectFlash(c *fiber.Ctx, path, id string) error {
	return c.Redirect(path + "?flash=" + url.QueryEscape(w.tr.T(middleware.CurrentLocale(c), id, nil)))
}

func (w *Web) createProduct(c *fiber.Ctx) error {
	price, err := decimal.NewFromString(c.FormValue("price", "0"))
	if err != nil {
		return w.fail(c, service.ErrValidation.WithParams(map[string]any{"Field": "price", "Tag": "decimal"}))
	}
	cost, err := decimal.NewFromString(c.FormValue("cost", "0"))
	if err != nil {
		return w.fail(c, service.ErrValidation.WithParams(map[string]any{"Field": "cost", "Tag": "decimal"}))
	}
	tax, err := decimal.NewFromString(c.FormValue("tax_rate", "20"))
	if err != nil {
		return w.fail(c, service.ErrValidation.WithParams(map[string]any{"Field": "tax_rate", "Tag": "decimal"}))
	}
	_, err = mediator.Send[*model.Product](c.UserContext(), w.m, service.CreateProduct{
		Actor:         middleware.Actor(c),
		Code:          c.FormValue("code"),
		Name:          c.FormValue("name"),
		Description:   c.FormValue("description"),
		Price:         price,
		Cost:          cost,
		TaxRate:       tax,
		UnitOfMeasure: c.FormValue("unit_of_measure"),
	})
	if err != nil {
		return w.fail(c, err)
	}
	return w.redirectFlash(c, "/products", "product.created")
}

func (w *Web) confirmOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return w.fail(c, service.ErrValidation.WithParams(map[string]any{"Field": "id", "Tag": "uuid"}))
	}
	cmd := service.ConfirmOrder{OrderAction: service.OrderAction{Actor: middleware.Actor(c), ID: id}}
	if _, err := mediator.Send[*model.Order](c.UserContext(), w.m, cmd); err != nil {
		return w.fail(c, err)
	}
	return w.redirectFlash(c, "/orders", "order.confirmed")
}

func (w *Web) settings(c *fiber.Ctx) error {
	return w.render(c, "settings", "nav.settings", fiber.Map{"Locales": w.tr.Locales()})
}

func (w *Web) setLocale(c *fiber.Ctx) error {
	code, ok := w.tr.Normalize(c.FormValue("locale"))
	if !ok {
		return w.fail(c, service.ErrValidation.WithParams(map[string]any{"Field": "locale", "Tag": "oneof"}))
	}
	if err := middleware.SetSessionLocale(c, w.store, w.tr, code); err != nil {
		return w.fail(c, err)
	}
	cmd := service.UpdateLocale{UserID: middleware.UserID(c), Locale: code}
	if _, err := mediator.Send[struct{}](c.UserContext(), w.m, cmd); err != nil {
		return w.fail(c, err)
	}
	return w.redirectFlash(c, "/settings", "locale.changed")
}
