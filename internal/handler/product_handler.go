package handler

import (
	"io"
	"path/filepath"
	"strings"

	"erp-backend/internal/export"
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

var ErrMissingFile = ErrBadRequest.WithParams(map[string]any{"Field": "file", "Tag": "required"})

func (a *API) productRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/products", can(model.PrivProductView), handle[service.ListProducts, repository.Page[model.Product]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListProducts) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			q.Filter.CategoryID, err = optionalUUID(c, "category_id")
			return err
		}))
	r.Get("/products/export", can(model.PrivProductView), download(a, func(c *fiber.Ctx, q *service.ExportProducts) error {
		format, err := export.ParseFormat(c.Query("format", "csv"))
		if err != nil {
			return ErrBadRequest.WithParams(map[string]any{"Field": "format", "Tag": "oneof"})
		}
		q.Format = format
		if err := parseQuery(c, &q.Filter); err != nil {
			return err
		}
		q.Filter.CategoryID, err = optionalUUID(c, "category_id")
		return err
	}))
	r.Post("/products/import", can(model.PrivProductImport), a.importProducts)
	r.Post("/products", can(model.PrivProductManage), handle[service.CreateProduct, *model.Product](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateProduct) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/products/:id", can(model.PrivProductView), handle[service.GetProduct, *model.Product](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetProduct) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/products/:id", can(model.PrivProductManage), handle[service.UpdateProduct, *model.Product](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateProduct) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Patch("/products/:id/status", can(model.PrivProductManage), handle[service.ChangeProductStatus, *model.Product](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ChangeProductStatus) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Delete("/products/:id", can(model.PrivProductManage), handle[service.ArchiveProduct, *model.Product](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ArchiveProduct) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Post("/products/:id/variants", can(model.PrivProductManage), handle[service.AddProductVariant, *model.ProductVariant](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.AddProductVariant) (err error) {
			cmd.Actor = actor(c)
			cmd.ProductID, err = idParam(c, "id")
			return err
		}))
	r.Get("/products/:id/price-history", can(model.PrivProductView), handle[service.GetPriceHistory, []model.ProductPriceHistory](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPriceHistory) (err error) {
			q.ProductID, err = idParam(c, "id")
			return err
		}))
	r.Get("/products/:id/cost-history", can(model.PrivProductView), handle[service.GetCostHistory, []model.ProductCostHistory](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetCostHistory) (err error) {
			q.ProductID, err = idParam(c, "id")
			return err
		}))

	r.Get("/categories", can(model.PrivProductView), handle[service.ListCategories, []model.Category](a, fiber.StatusOK, nil))
	r.Post("/categories", can(model.PrivProductManage), handle[service.CreateCategory, *model.Category](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateCategory) error {
			cmd.Actor = actor(c)
			return nil
		}))
}

// importProducts accepts a multipart upload in field "file". The format comes
// from the "format" field or the file extension.
func (a *API) importProducts(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile
	}
	raw := c.FormValue("format")
	if raw == "" {
		raw = strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
	}
	format, err := export.ParseFormat(raw)
	if err != nil || format == export.FormatPDF {
		return ErrBadRequest.WithParams(map[string]any{"Field": "format", "Tag": "oneof"})
	}
	f, err := fh.Open()
	if err != nil {
		return ErrMissingFile.Wrap(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return ErrMissingFile.Wrap(err)
	}
	res, err := mediatorSend[*service.ImportResult](c, a, service.ImportProducts{Actor: actor(c), Format: format, Data: data})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, res)
}
