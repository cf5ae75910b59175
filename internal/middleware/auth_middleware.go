package middleware

import (
	"strings"

	"erp-backend/internal/apperr"
	"erp-backend/internal/repository"
	"erp-backend/pkg/jwt"
	"erp-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LocalUserID     = "user_id"
	LocalUserEmail  = "user_email"
	LocalUserName   = "user_name"
	LocalPrivileges = "user_privileges"
)

var (
	ErrMissingToken = apperr.Unauthorized("missing_token", "missing authorization token")
	ErrInvalidToken = apperr.Unauthorized("invalid_token", "invalid or expired token")
	ErrSession      = apperr.Unauthorized("session_replaced", "session expired (logged in on another device)")
	ErrForbidden    = apperr.Forbidden("forbidden", "missing privilege")
)

// bearer extracts the token of an "Authorization: Bearer <token>" header.
func bearer(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth validates the bearer token and the single-session version and
// stores the caller in the request locals.
func RequireAuth(tokens *jwt.Manager, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return ErrMissingToken
		}
		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			return ErrInvalidToken
		}
		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil || !user.IsActive {
			return ErrInvalidToken
		}
		if user.TokenVersion != claims.TokenVersion {
			return ErrSession
		}

		c.Locals(LocalUserID, claims.UserID.String())
		c.Locals(LocalUserEmail, claims.Email)
		c.Locals(LocalUserName, claims.Name)
		c.Locals(LocalPrivileges, user.GetPrivilegeCodes())

		log := logger.FromContext(c.UserContext()).With(zap.String("user_id", claims.UserID.String()))
		c.SetUserContext(logger.WithContext(c.UserContext(), log))
		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(required string) fiber.Handler {
	return RequireAnyPrivilege(required)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(required ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, _ := c.Locals(LocalPrivileges).([]string)
		for _, have := range privileges {
			for _, want := range required {
				if have == want {
					return c.Next()
				}
			}
		}
		return ErrForbidden.WithParams(map[string]any{"Privilege": strings.Join(required, " | ")})
	}
}

// UserID returns the authenticated user, or uuid.Nil on public routes.
func UserID(c *fiber.Ctx) uuid.UUID {
	s, _ := c.Locals(LocalUserID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Actor is the audit name written to created_by and updated_by.
func Actor(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocalUserID).(string); ok && s != "" {
		return s
	}
	return "system"
}

func Privileges(c *fiber.Ctx) []string {
	privileges, _ := c.Locals(LocalPrivileges).([]string)
	return privileges
}
