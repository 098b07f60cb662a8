package handlers

import (
	"log"

	"foodhub/internal/middleware"
	"foodhub/internal/services"
	"foodhub/pkg/paystack"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment initialization, verification and the gateway webhook.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/initialize", h.HandleInitialize)
	paymentRoutes.Get("/verify", h.HandleVerify)
}

// RegisterWebhook registers the public webhook route; authenticity comes from
// the payload signature, not from a token.
func (h *PaymentHandler) RegisterWebhook(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// HandleInitialize opens a payment session for an order.
func (h *PaymentHandler) HandleInitialize(c *fiber.Ctx) error {
	var req services.InitializePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	result, err := h.service.InitializePayment(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, "Could not initialize payment", err)
	}
	return c.JSON(fiber.Map{
		"message": "Payment initialized",
		"data":    result,
	})
}

// HandleVerify checks a payment reference with the gateway.
func (h *PaymentHandler) HandleVerify(c *fiber.Ctx) error {
	result, err := h.service.VerifyPayment(c.UserContext(), c.Query("reference"))
	if err != nil {
		return respondError(c, "Could not verify payment", err)
	}
	message := "Payment verified"
	if result.Status != paystack.StatusSuccess {
		message = "Payment not completed"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"data":    result,
	})
}

// HandleWebhook receives gateway events. Anything but a signature mismatch or a
// storage failure is acknowledged with 200 so the gateway stops retrying.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	payload := c.Request().Body()
	if err := h.service.HandleWebhook(payload, c.Get(paystack.SignatureHeader)); err != nil {
		return respondError(c, "Webhook rejected", err)
	}
	log.Printf("Webhook processed")
	return c.SendStatus(fiber.StatusOK)
}
