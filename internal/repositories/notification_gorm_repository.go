package repositories

import (
	"errors"
	"fmt"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{db: db}
}

// Create appends a notification.
func (r *GORMNotificationRepository) Create(notification *models.Notification) error {
	return createNotifications(r.db, []models.Notification{*notification})
}

// ListByUser returns the user's notifications, newest first.
func (r *GORMNotificationRepository) ListByUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

// MarkRead flips the read flag of a notification owned by userID.
func (r *GORMNotificationRepository) MarkRead(id, userID string) (*models.Notification, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", models.NotificationStatusRead)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	var notification models.Notification
	if err := r.db.First(&notification, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "notification", ID: id}
		}
		return nil, fmt.Errorf("failed to load notification %s: %w", id, err)
	}
	return &notification, nil
}

// createNotifications inserts notifications using db, which may be a transaction.
func createNotifications(db *gorm.DB, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.New().String()
		}
		if notifications[i].Status == "" {
			notifications[i].Status = models.NotificationStatusUnread
		}
	}
	if err := db.Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to record notifications: %w", err)
	}
	return nil
}
