// Package httpapi provides the thin fiber adapter shared by every
// service's HTTP surface: error-to-status mapping and request validation,
// grounded on the teacher's common/net/http/errors.go and
// common/net/http/handler.go.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenfund/pledgeflow/internal/errs"
)

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WithError maps a typed internal error onto the appropriate HTTP status,
// mirroring the teacher's type-switch dispatcher in common/net/http/errors.go.
func WithError(c *fiber.Ctx, err error) error {
	var notFound errs.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: notFound.Code, Message: notFound.Error()})
	}

	var unprocessable errs.UnprocessableError
	if errors.As(err, &unprocessable) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: unprocessable.Code, Message: unprocessable.Error()})
	}

	var validation errs.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: validation.Code, Message: validation.Error()})
	}

	var conflict errs.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: conflict.Code, Message: conflict.Error()})
	}

	var transient errs.TransientError
	if errors.As(err, &transient) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Code: transient.Code, Message: transient.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "internal server error"})
}
