package middleware

import (
	"strconv"
	"time"

	"erp-backend/internal/metrics"
	"erp-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger tags the request with an id, puts a request-scoped zap logger
// in the user context and logs the outcome.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)

		log := logger.L().With(zap.String("request_id", requestID))
		c.SetUserContext(logger.WithContext(c.UserContext(), log))

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Render the error now so the logged status is the one sent.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		reqLog := logger.FromContext(c.UserContext())
		switch {
		case status >= fiber.StatusInternalServerError:
			reqLog.Error("request failed", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			reqLog.Warn("request rejected", fields...)
		default:
			reqLog.Info("request", fields...)
		}
		return nil
	}
}

// Metrics records request count and latency by route pattern. It is mounted
// before RequestLogger so errors are already rendered when it reads the status.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		m.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(c.Response().StatusCode()), start)
		return err
	}
}
