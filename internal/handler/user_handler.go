package handler

import (
	"erp-backend/internal/model"
	"erp-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (a *API) userRoutes(r fiber.Router, can func(string) fiber.Handler) {
	r.Get("/users", can(model.PrivUserView), handle[service.ListUsers, []model.UserResponse](a, fiber.StatusOK, nil))
	r.Post("/users", can(model.PrivUserCreate), handle[service.CreateUser, *model.User](a, fiber.StatusCreated,
		func(c *fiber.Ctx, cmd *service.CreateUser) error {
			cmd.Actor = actor(c)
			return nil
		}))
	r.Put("/users/me/locale", a.updateOwnLocale)
	r.Get("/users/:id", can(model.PrivUserView), handle[service.GetUser, *model.User](a, fiber.StatusOK,
		func(c *fiber.Ctx, q *service.GetUser) (err error) {
			q.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/users/:id", can(model.PrivUserUpdate), handle[service.UpdateUser, *model.User](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateUser) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Delete("/users/:id", can(model.PrivUserDelete), handle[service.DeleteUser, struct{}](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.DeleteUser) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))
	r.Put("/users/:id/privileges", can(model.PrivUserUpdatePrivilege), handle[service.UpdateUserPrivileges, *model.User](a, fiber.StatusOK,
		func(c *fiber.Ctx, cmd *service.UpdateUserPrivileges) (err error) {
			cmd.Actor = actor(c)
			cmd.ID, err = idParam(c, "id")
			return err
		}))

	r.Get("/roles", can(model.PrivUserView), handle[service.ListRoles, []model.Role](a, fiber.StatusOK, nil))
	r.Get("/privileges", can(model.PrivUserView), handle[service.ListPrivileges, []model.Privilege](a, fiber.StatusOK, nil))
}
