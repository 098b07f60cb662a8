package models

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationTypeOrderUpdate NotificationType = "order_update"
	NotificationTypeSystem      NotificationType = "system"
	NotificationTypeReminder    NotificationType = "reminder"
)

// NotificationStatus is the read flag of a notification.
type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// Notification is an append-only event a user can poll for.
type Notification struct {
	ID        string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string             `json:"user_id" gorm:"type:varchar(36);index;not null"`
	OrderID   *string            `json:"order_id,omitempty" gorm:"type:varchar(36);index"`
	Title     string             `json:"title" gorm:"type:varchar(150);not null"`
	Message   string             `json:"message" gorm:"type:text;not null"`
	Type      NotificationType   `json:"type" gorm:"type:varchar(20);not null"`
	Status    NotificationStatus `json:"status" gorm:"type:varchar(10);not null;default:unread"`
	CreatedAt time.Time          `json:"created_at"`
}
