package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
)

// ErrorHandler maps domain error kinds onto HTTP status codes so handlers
// can return errors untranslated.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		switch domain.KindOf(err) {
		case domain.KindValidation, domain.KindMalformedSignal:
			code = fiber.StatusBadRequest
		case domain.KindConflict:
			code = fiber.StatusConflict
		case domain.KindNotFound:
			code = fiber.StatusNotFound
		case domain.KindTransientStore:
			code = fiber.StatusServiceUnavailable
		default:
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
