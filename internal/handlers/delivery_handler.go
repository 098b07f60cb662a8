package handlers

import (
	"foodhub/internal/middleware"
	"foodhub/internal/models"
	"foodhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DeliveryHandler manages delivery people.
type DeliveryHandler struct {
	service *services.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// RegisterRoutes registers the delivery-people routes for staff.
func (h *DeliveryHandler) RegisterRoutes(router fiber.Router) {
	deliveryRoutes := router.Group("/delivery-people",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSales, models.RoleOrderManager))
	deliveryRoutes.Get("/", h.HandleList)
	deliveryRoutes.Post("/", h.HandleCreate)
}

// HandleList lists delivery people.
func (h *DeliveryHandler) HandleList(c *fiber.Ctx) error {
	people, err := h.service.List(middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, "Could not retrieve delivery people", err)
	}
	return c.JSON(people)
}

// HandleCreate registers a delivery person.
func (h *DeliveryHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.CreateDeliveryPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	person, err := h.service.Create(middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, "Could not register delivery person", err)
	}
	return c.Status(fiber.StatusCreated).JSON(person)
}
