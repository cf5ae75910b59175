package middleware

import (
	"erp-backend/internal/i18n"
	"erp-backend/pkg/jwt"
	"erp-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const (
	LocalLocale    = "locale"
	LocalDirection = "direction"
	SessionLocale  = "locale"
)

// Locale negotiates the request language: ?lang=, then the session, then the
// user's profile locale carried in the token, then the configured default,
// then Accept-Language. The result is written back to the session.
func Locale(tr *i18n.Translator, store *session.Store, tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			logger.FromContext(c.UserContext()).Warn("session unavailable", zap.Error(err))
		}

		var fromSession, fromProfile string
		if sess != nil {
			fromSession, _ = sess.Get(SessionLocale).(string)
		}
		if raw := bearer(c); raw != "" && tokens != nil {
			if claims, err := tokens.ValidateToken(raw); err == nil {
				fromProfile = claims.Locale
			}
		}

		code := tr.Negotiate(c.Get(fiber.HeaderAcceptLanguage), c.Query("lang"), fromSession, fromProfile)
		c.Locals(LocalLocale, code)
		c.Locals(LocalDirection, tr.Direction(code))
		c.Set(fiber.HeaderContentLanguage, code)

		if sess != nil && fromSession != code {
			sess.Set(SessionLocale, code)
			if err := sess.Save(); err != nil {
				logger.FromContext(c.UserContext()).Warn("session save failed", zap.Error(err))
			}
		}
		return c.Next()
	}
}

// SetSessionLocale stores an explicit choice for the following requests.
func SetSessionLocale(c *fiber.Ctx, store *session.Store, tr *i18n.Translator, code string) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(SessionLocale, code)
	c.Locals(LocalLocale, code)
	c.Locals(LocalDirection, tr.Direction(code))
	return sess.Save()
}

// CurrentLocale returns the negotiated locale, defaulting to en.
func CurrentLocale(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocalLocale).(string); ok && s != "" {
		return s
	}
	return "en"
}

func CurrentDirection(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocalDirection).(string); ok && s != "" {
		return s
	}
	return i18n.LTR
}
