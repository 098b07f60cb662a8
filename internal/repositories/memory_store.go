package repositories

import (
	"sync"

	"foodhub/internal/models"
)

// MemoryStore holds the tables behind the in-memory repositories. A single
// lock covers every table so that order placement can touch products, orders
// and notifications as one unit, the way a database transaction would.
type MemoryStore struct {
	mu             sync.RWMutex
	products       map[string]models.Product
	orders         map[string]models.Order
	notifications  []models.Notification
	deliveryPeople map[string]models.DeliveryPerson
	users          map[string]models.User
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:       make(map[string]models.Product),
		orders:         make(map[string]models.Order),
		deliveryPeople: make(map[string]models.DeliveryPerson),
		users:          make(map[string]models.User),
	}
}

func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
