package repositories

import "foodhub/internal/models"

// NotificationRepository defines the interface for the notification sink.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListByUser(userID string) ([]models.Notification, error)
	MarkRead(id, userID string) (*models.Notification, error)
}
