package services

import "foodhub/internal/models"

// Identity is the authenticated caller, passed explicitly into every operation.
type Identity struct {
	UserID string
	Role   models.Role
}

// IsStaff reports whether the caller works on the restaurant side.
func (i Identity) IsStaff() bool {
	return i.Role.IsStaff()
}

func (i Identity) canAccess(order *models.Order) bool {
	return i.IsStaff() || order.UserID == i.UserID
}
