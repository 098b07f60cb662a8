package handlers

import (
	"errors"
	"log"

	"foodhub/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return fiber.StatusBadRequest
	case apperrors.KindInsufficientStock, apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindAuthenticity:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindGateway:
		var gatewayErr *apperrors.GatewayError
		if errors.As(err, &gatewayErr) && !gatewayErr.Unavailable {
			return fiber.StatusBadGateway
		}
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes the structured failure body: a human message, the
// machine-readable kind and either per-field errors or the error text.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}

	body := fiber.Map{
		"message": message,
		"kind":    apperrors.KindOf(err),
	}
	var (
		validationErr *apperrors.ValidationError
		stockErr      *apperrors.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		body["errors"] = validationErr.Fields
	case errors.As(err, &stockErr):
		body["error"] = stockErr.Error()
		body["product_id"] = stockErr.ProductID
		body["product_name"] = stockErr.ProductName
		body["requested"] = stockErr.Requested
		body["available"] = stockErr.Available
	default:
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// invalidBody answers 400 for a request body that could not be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	log.Printf("Error parsing request body for %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"kind":    apperrors.KindValidation,
		"error":   err.Error(),
	})
}
