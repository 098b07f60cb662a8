package handlers

import (
	"foodhub/internal/middleware"
	"foodhub/internal/models"
	"foodhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)

	orderStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleSales, models.RoleOrderManager)
	orderRoutes.Put("/:id/assign-delivery", orderStaff, h.HandleAssignDelivery)
	orderRoutes.Put("/:id/status", orderStaff, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the caller's orders, or every order for staff.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.PlaceOrder(middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, "Order creation failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleAssignDelivery assigns a delivery person to an order.
func (h *OrderHandler) HandleAssignDelivery(c *fiber.Ctx) error {
	var req services.AssignDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.AssignDelivery(middleware.IdentityFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, "Could not assign delivery", err)
	}
	return c.JSON(fiber.Map{
		"message": "Delivery assigned to order " + order.OrderNumber,
		"order":   order,
	})
}

// HandleUpdateOrderStatus updates the status and/or delivery status of an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req services.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.UpdateStatus(middleware.IdentityFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order " + order.OrderNumber + " status updated successfully",
		"order":   order,
	})
}
