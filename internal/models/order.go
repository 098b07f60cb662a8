package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodDelivery PaymentMethod = "delivery"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodDelivery
}

// PaymentStatus moves from unpaid to paid once and never back.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// DeliveryStatus tracks the courier leg of an order.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusDelivered:
		return true
	}
	return false
}

// Order status labels.
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusOnDelivery = "on delivery"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderItem represents a single line within an order.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	ProductName string          `json:"product_name" gorm:"type:varchar(150)"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"` // Unit price at the time of order
	CreatedAt   time.Time       `json:"created_at"`
}

// Subtotal is the unit price multiplied by the quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order.
type Order struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber      string          `json:"order_number" gorm:"type:varchar(32);uniqueIndex;not null"`
	UserID           string          `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Items            []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalPrice       decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	PaymentMethod    PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	Status           string          `json:"status" gorm:"type:varchar(30);not null"`
	PaymentStatus    PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:unpaid"`
	DeliveryStatus   DeliveryStatus  `json:"delivery_status" gorm:"type:varchar(20);not null;default:pending"`
	PaymentReference string          `json:"payment_reference,omitempty" gorm:"type:varchar(100);index"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	DeliveryPersonID *string         `json:"delivery_person_id,omitempty" gorm:"type:varchar(36)"`
	Address          string          `json:"address" gorm:"type:text;not null"`
	Phone            string          `json:"phone" gorm:"type:varchar(30);not null"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ItemsTotal sums the line subtotals.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsPaid reports whether the payment transition has happened.
func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
