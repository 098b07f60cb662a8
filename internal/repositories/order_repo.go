package repositories

import (
	"fmt"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/shopspring/decimal"
)

// OrderLine is one requested (product, quantity) pair.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// PlaceOrderCommand is the atomic unit of order placement: the order row, one
// item per line priced from the catalog, the stock decrements and the staff
// notifications are written together or not at all.
type PlaceOrderCommand struct {
	Order         models.Order
	Lines         []OrderLine
	DeclaredTotal decimal.Decimal
	Notifications []models.Notification
}

// ApplyPaymentCommand flips an order from unpaid to paid. Notify builds the
// owner's notification and is only called when the transition happens.
type ApplyPaymentCommand struct {
	OrderID   string
	Reference string
	PaidAt    time.Time
	Notify    func(order models.Order) models.Notification
}

// AssignDeliveryCommand points a delivery person at an order. Either
// DeliveryPersonID or Name and Phone is set; a free-text courier is looked up
// by phone and created when missing.
type AssignDeliveryCommand struct {
	OrderID          string
	DeliveryPersonID string
	Name             string
	Phone            string
	Notify           func(order models.Order, person models.DeliveryPerson) models.Notification
}

// UpdateStatusCommand sets the order and/or delivery status.
type UpdateStatusCommand struct {
	OrderID        string
	Status         *string
	DeliveryStatus *models.DeliveryStatus
	Notify         func(order models.Order) models.Notification
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByReference(reference string) (*models.Order, error)
	SetPaymentReference(orderID, reference string) error

	// PlaceOrder runs the whole placement in one transaction.
	PlaceOrder(cmd PlaceOrderCommand) (*models.Order, error)
	// ApplyPayment reports applied=false when the order was already paid.
	ApplyPayment(cmd ApplyPaymentCommand) (order *models.Order, applied bool, err error)
	AssignDelivery(cmd AssignDeliveryCommand) (*models.Order, error)
	UpdateStatus(cmd UpdateStatusCommand) (*models.Order, error)
}

func checkDeclaredTotal(order models.Order, declared decimal.Decimal) error {
	if total := order.ItemsTotal(); !total.Equal(declared) {
		return apperrors.NewValidationError("total_price",
			fmt.Sprintf("declared total %s does not match items total %s", declared.StringFixed(2), total.StringFixed(2)))
	}
	return nil
}

func insufficientStock(product models.Product, requested int) error {
	return &apperrors.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   decimal.NewFromInt(int64(requested)).String(),
		Available:   product.Quantity.String(),
	}
}

func attachOrder(notifications []models.Notification, orderID string) []models.Notification {
	out := make([]models.Notification, len(notifications))
	for i, n := range notifications {
		id := orderID
		n.OrderID = &id
		out[i] = n
	}
	return out
}
