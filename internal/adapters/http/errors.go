package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int                 `json:"status"`
	Code      string              `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string              `json:"message"` // Human-readable message
	Fields    []domain.FieldError `json:"fields,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals("requestid").(string)
	return reqID
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errValidation returns a 400 error listing every invalid field.
func errValidation(c *fiber.Ctx, verrs domain.ValidationErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIError{
		Status:    fiber.StatusBadRequest,
		Code:      "validation_failed",
		Message:   verrs.Error(),
		Fields:    verrs,
		RequestID: requestID(c),
	})
}

// serviceError maps usecase errors onto the API error shape.
func serviceError(c *fiber.Ctx, err error) error {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return errValidation(c, verrs)
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "poi not found")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}
