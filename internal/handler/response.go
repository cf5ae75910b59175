package handler

import (
	"errors"
	"time"

	"erp-backend/internal/apperr"
	"erp-backend/internal/i18n"
	"erp-backend/internal/middleware"
	"erp-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBadRequest = apperr.Validation("bad_request", "malformed request body")
	ErrBadID      = apperr.Validation("validation_failed", "invalid identifier")
	ErrBadDate    = apperr.Validation("validation_failed", "invalid date")
)

type Meta struct {
	Locale    string `json:"locale"`
	Direction string `json:"direction"`
}

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

func meta(c *fiber.Ctx) Meta {
	return Meta{Locale: middleware.CurrentLocale(c), Direction: middleware.CurrentDirection(c)}
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Meta: meta(c)})
}

// ErrorHandler renders errors as envelopes with a translated message.
func ErrorHandler(tr *i18n.Translator) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		locale := middleware.CurrentLocale(c)
		body := &ErrorBody{}
		status := fiber.StatusInternalServerError

		var fe *fiber.Error
		if e, ok := apperr.As(err); ok {
			status = e.Kind.HTTPStatus()
			body.Code = e.Code
			body.Message = tr.Error(locale, e)
			body.Details = e.Params
			if e.Kind == apperr.KindInternal {
				logger.FromContext(c.UserContext()).Error("internal error", zap.Error(err))
				body.Details = nil
			}
		} else if errors.As(err, &fe) {
			status = fe.Code
			body.Code = "http_error"
			body.Message = fe.Message
		} else {
			logger.FromContext(c.UserContext()).Error("unhandled error", zap.Error(err))
			body.Code = "internal_error"
			body.Message = tr.T(locale, "internal_error", nil)
		}
		return c.Status(status).JSON(Envelope{Success: false, Error: body, Meta: meta(c)})
	}
}

func bind(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return ErrBadRequest.Wrap(err)
	}
	return nil
}

func idParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, ErrBadID.WithParams(map[string]any{"Field": name, "Tag": "uuid"})
	}
	return id, nil
}

// optionalUUID reads an optional uuid query parameter.
func optionalUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrBadID.WithParams(map[string]any{"Field": name, "Tag": "uuid"})
	}
	return &id, nil
}

// dateQuery parses a YYYY-MM-DD query parameter, using def when absent.
func dateQuery(c *fiber.Ctx, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, ErrBadDate.WithParams(map[string]any{"Field": name, "Tag": "date"})
	}
	return t, nil
}
