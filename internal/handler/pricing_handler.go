package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func (a *API) pricingRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/pricing/price", can(model.PrivPricingView), handle[service.GetPrice, *service.PriceResult](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPrice) error {
			product, err := optionalUUID(c, "product_id")
			if err != nil {
				return err
			}
			if product == nil {
				return ErrBadID.WithParams(map[string]any{"Field": "product_id", "Tag": "required"})
			}
			q.ProductID = *product
			if q.CustomerID, err = optionalUUID(c, "customer_id"); err != nil {
				return err
			}
			q.Quantity = decimal.NewFromInt(1)
			if raw := c.Query("quantity"); raw != "" {
				qty, err := decimal.NewFromString(raw)
				if err != nil || !qty.IsPositive() {
					return ErrBadRequest.WithParams(map[string]any{"Field": "quantity", "Tag": "gt"})
				}
				q.Quantity = qty
			}
			return nil
		}))

	r.Get("/price-lists", can(model.PrivPricingView), handle[service.ListPriceLists, []model.PriceList](a, fiber.StatusOK, nil))
	r.Post("/price-lists", can(model.PrivPricingManage), handle[service.CreatePriceList, *model.PriceList](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreatePriceList) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Get("/price-lists/:id", can(model.PrivPricingView), handle[service.GetPriceList, *model.PriceList](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetPriceList) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/price-lists/:id/items", can(model.PrivPricingManage), handle[service.SetPriceListItem, *model.PriceListItem](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.SetPriceListItem) (err error) {
			cmd.Actor = actor(c)
			cmd.PriceListID, err = idParam(c, "id")
			return err
		}))

	r.Get("/products/:id/volume-tiers", can(model.PrivPricingView), handle[service.ListVolumeTiers, []model.VolumePricingTier](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListVolumeTiers) (err error) {
			q.ProductID, err = idParam(c, "id")
			return err
		}))
	r.Post("/volume-tiers", can(model.PrivPricingManage), handle[service.CreateVolumeTier, *model.VolumePricingTier](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateVolumeTier) error {
			cmd.Actor = actor(c)
			return nil
		}))

	r.Get("/promotions", can(model.PrivPricingView), handle[service.ListPromotions, []model.PromotionalPrice](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ListPromotions) (err error) {
			q.ProductID, err = optionalUUID(c, "product_id")
			return err
		}))
	r.Post("/promotions", can(model.PrivPricingManage), handle[service.CreatePromotion, *model.PromotionalPrice](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreatePromotion) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Delete("/promotions/:id", can(model.PrivPricingManage), handle[service.DeactivatePromotion, *model.PromotionalPrice](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.DeactivatePromotion) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
}
