package handler

import (
	"erp-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Routes mounts the REST API on router. Public routes are registered before
// the auth middleware so they match first.
func (a *API) Routes(router fiber.Router, auth fiber.Handler) {
	v1 := router.Group("/api/v1")
	a.i18nRoutes(v1)
	a.publicAuthRoutes(v1)

	private := v1.Group("", auth)
	a.sessionRoutes(private)

	can := middleware.RequirePrivilege
	a.userRoutes(private, can)
	a.productRoutes(private, can)
	a.pricingRoutes(private, can)
	a.partnerRoutes(private, can)
	a.stockRoutes(private, can)
	a.salesRoutes(private, can)
	a.purchaseRoutes(private, can)
	a.billingRoutes(private, can)
	a.reportRoutes(private, can)
}
