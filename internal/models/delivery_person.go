package models

import "time"

// DeliveryPerson is a courier that can be pointed at an order.
type DeliveryPerson struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(30);uniqueIndex;not null"`
	OrderID   *string   `json:"order_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
