package models

import "time"

// Role decides which parts of the API a user may call.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleAdmin        Role = "admin"
	RoleSales        Role = "sales"
	RoleOrderManager Role = "order_manager"
	RoleDelivery     Role = "delivery"
)

// IsStaff reports whether the role belongs to the restaurant side.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleOrderManager:
		return true
	}
	return false
}

// User represents a user of the platform.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;default:customer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
