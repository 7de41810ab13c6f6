package serverutils

import (
	"errors"

	"ai-companion-be/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors that escape a handler into the
// standard response envelope. Service-level taxonomy errors get their own
// status codes; fiber errors keep theirs; everything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.Is(err, apperrors.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, apperrors.ErrUnauthorized):
			code = fiber.StatusUnauthorized
		case errors.Is(err, apperrors.ErrQuotaExceeded):
			code = fiber.StatusTooManyRequests
		case errors.Is(err, apperrors.ErrContentRejected):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, apperrors.ErrTransientUnavailable):
			code = fiber.StatusServiceUnavailable
		case errors.Is(err, apperrors.ErrUpstreamFailure):
			code = fiber.StatusBadGateway
		case errors.Is(err, apperrors.ErrPersistenceFailure):
			code = fiber.StatusInternalServerError
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
