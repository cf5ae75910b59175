package handler

import (
	"strings"

	"erp-backend/internal/middleware"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) publicAuthRoutes(public fiber.Router) {
	public.Post("/auth/login", handle[service.Login, *service.LoginResponse](a, fiber.StatusOK, nil))
	public.Get("/auth/validate", handle[service.ValidateToken, *service.TokenValidationResponse](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.ValidateToken) error {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				q.Token = strings.TrimPrefix(h, "Bearer ")
			}
			if q.Token == "" {
				return middleware.ErrMissingToken
			}
			return nil
		}))
	public.Post("/auth/change-password", handle[service.ChangePassword, struct{}](a, fiber.StatusOK, nil))
}

func (a *API) sessionRoutes(private fiber.Router) {
	private.Post("/auth/heartbeat", handle[service.Heartbeat, struct{}](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.Heartbeat) error {
			cmd.UserID = middleware.UserID(c)
			return nil
		}))
	private.Post("/auth/logout", handle[service.Logout, struct{}](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.Logout) error {
			cmd.UserID = middleware.UserID(c)
			return nil
		}))
}
