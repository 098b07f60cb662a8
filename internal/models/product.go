package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability describes whether a product can currently be ordered.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityWaitTime    Availability = "wait_time"
	AvailabilityUnavailable Availability = "unavailable"
)

// Valid reports whether a is one of the known availability values.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityWaitTime, AvailabilityUnavailable:
		return true
	}
	return false
}

// Product represents a menu item in the catalog.
type Product struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string          `json:"name" gorm:"type:varchar(150);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(12,2);not null"` // Stock on hand
	Category     string          `json:"category" gorm:"type:varchar(100);index"`
	Availability Availability    `json:"availability" gorm:"type:varchar(20);not null;default:available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
