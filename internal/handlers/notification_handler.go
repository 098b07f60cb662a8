package handlers

import (
	"foodhub/internal/middleware"
	"foodhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler lets users poll their notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notificationRoutes := router.Group("/notifications")
	notificationRoutes.Get("/", h.HandleList)
	notificationRoutes.Put("/:id/read", h.HandleMarkRead)
}

// HandleList returns the caller's notifications.
func (h *NotificationHandler) HandleList(c *fiber.Ctx) error {
	notifications, err := h.service.List(middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, "Could not retrieve notifications", err)
	}
	return c.JSON(notifications)
}

// HandleMarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	notification, err := h.service.MarkRead(middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not update notification", err)
	}
	return c.JSON(notification)
}
