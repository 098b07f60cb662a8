package services

import (
	"foodhub/internal/models"
	"foodhub/internal/repositories"
)

// NotificationService exposes the notification sink to its recipients.
type NotificationService struct {
	repo repositories.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(identity Identity) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(identity.UserID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flips one of the caller's notifications to read.
func (s *NotificationService) MarkRead(identity Identity, id string) (*models.Notification, error) {
	return s.repo.MarkRead(id, identity.UserID)
}
