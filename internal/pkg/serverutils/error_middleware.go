package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// NotFoundError marks errors that should surface as 404 instead of 500
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError marks errors that should surface as 409
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware converts service errors returned by controllers
// into the standard envelope with an appropriate status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(validationErr.Error()))
		}

		var notFoundErr *NotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(notFoundErr.Error()))
		}

		var conflictErr *ConflictError
		if errors.As(err, &conflictErr) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(conflictErr.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
