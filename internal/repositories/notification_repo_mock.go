package repositories

import (
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
)

// MockNotificationRepository is an in-memory implementation of NotificationRepository.
type MockNotificationRepository struct {
	store *MemoryStore
}

// NewMockNotificationRepository creates a new instance of MockNotificationRepository.
func NewMockNotificationRepository(store *MemoryStore) *MockNotificationRepository {
	return &MockNotificationRepository{store: store}
}

// Create appends a notification.
func (r *MockNotificationRepository) Create(notification *models.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := r.store.appendNotifications([]models.Notification{*notification}, time.Now())
	*notification = created[0]
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *MockNotificationRepository) ListByUser(userID string) ([]models.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var list []models.Notification
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		if n := r.store.notifications[i]; n.UserID == userID {
			list = append(list, n)
		}
	}
	return list, nil
}

// MarkRead flips the read flag of a notification owned by userID.
func (r *MockNotificationRepository) MarkRead(id, userID string) (*models.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, n := range r.store.notifications {
		if n.ID == id && n.UserID == userID {
			r.store.notifications[i].Status = models.NotificationStatusRead
			n = r.store.notifications[i]
			return &n, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "notification", ID: id}
}

// appendNotifications must be called with the store lock held.
func (s *MemoryStore) appendNotifications(notifications []models.Notification, at time.Time) []models.Notification {
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.New().String()
		}
		if notifications[i].Status == "" {
			notifications[i].Status = models.NotificationStatusUnread
		}
		notifications[i].CreatedAt = at
		s.notifications = append(s.notifications, notifications[i])
	}
	return notifications
}
