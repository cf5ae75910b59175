package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) stockRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/locations", can(model.PrivStockView), handle[service.ListLocations, []model.StockLocation](a, fiber.StatusOK, nil))
	r.Post("/locations", can(model.PrivStockManage), handle[service.CreateLocation, *model.StockLocation](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateLocation) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/stock", can(model.PrivStockView), handle[service.ListStockItems, repository.Page[model.StockItem]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListStockItems) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			if q.Filter.ProductID, err = optionalUUID(c, "product_id"); err != nil {
				return err
			}
			q.Filter.LocationID, err = optionalUUID(c, "location_id")
			return err
		}))
	r.Get("/stock/alerts", can(model.PrivStockView), handle[service.ListStockAlerts, []service.StockAlert](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListStockAlerts) error {
			q.Level = model.AlertLevel(c.Query("level"))
			return nil
		}))
	r.Get("/stock/movements", can(model.PrivStockView), handle[service.ListMovements, repository.Page[model.StockMovement]](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListMovements) error {
			if err := parseQuery(c, &q.Filter, &q.Page); err != nil {
				return err
			}
			var err error
			if q.Filter.ProductID, err = optionalUUID(c, "product_id"); err != nil {
				return err
			}
			if q.Filter.LocationID, err = optionalUUID(c, "location_id"); err != nil {
				return err
			}
			q.Filter.ReferenceID, err = optionalUUID(c, "reference_id")
			return err
		}))
	r.Post("/stock", can(model.PrivStockManage), handle[service.EnsureStockItem, *model.StockItem](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.EnsureStockItem) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/reserve", can(model.PrivStockManage), handle[service.ReserveStock, *model.StockItem](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ReserveStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/release", can(model.PrivStockManage), handle[service.ReleaseStock, *model.StockItem](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ReleaseStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/receive", can(model.PrivStockManage), handle[service.ReceiveStock, *model.StockMovement](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.ReceiveStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/issue", can(model.PrivStockManage), handle[service.IssueStock, *model.StockMovement](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.IssueStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/adjust", can(model.PrivStockManage), handle[service.AdjustStock, *model.StockMovement](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.AdjustStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Post("/stock/transfer", can(model.PrivStockManage), handle[service.TransferStock, *service.TransferResult](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.TransferStock) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/stock/:id", can(model.PrivStockView), handle[service.GetStockItem, *model.StockItem](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetStockItem) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/stock/:id/thresholds", can(model.PrivStockManage), handle[service.SetStockThresholds, *model.StockItem](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.SetStockThresholds) (err error) {
			cmd.Actor = actor(c)
			cmd.ItemID, err = idParam(c, "id")
			return err
		}))
}
