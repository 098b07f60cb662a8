package repositories

import (
	"fmt"
	"sort"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	store *MemoryStore
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(store *MemoryStore) *MockOrderRepository {
	return &MockOrderRepository{store: store}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	return r.filter(func(models.Order) bool { return true }), nil
}

// GetByUser returns the orders placed by userID.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if keep(order) {
			orderList = append(orderList, cloneOrder(order))
		}
	}
	sort.Slice(orderList, func(i, j int) bool { return orderList[i].CreatedAt.After(orderList[j].CreatedAt) })
	return orderList
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "order", ID: id}
	}
	order = cloneOrder(order)
	return &order, nil
}

// GetByReference returns the order carrying a payment reference.
func (r *MockOrderRepository) GetByReference(reference string) (*models.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, order := range r.store.orders {
		if reference != "" && order.PaymentReference == reference {
			order = cloneOrder(order)
			return &order, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "order", ID: reference}
}

// SetPaymentReference stores the reference of the latest payment attempt.
func (r *MockOrderRepository) SetPaymentReference(orderID, reference string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok {
		return &apperrors.NotFoundError{Resource: "order", ID: orderID}
	}
	order.PaymentReference = reference
	order.UpdatedAt = time.Now()
	r.store.orders[orderID] = order
	return nil
}

// PlaceOrder validates and reserves stock on a working copy and only writes
// back once every line and the declared total check out.
func (r *MockOrderRepository) PlaceOrder(cmd PlaceOrderCommand) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order := cmd.Order
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for _, existing := range r.store.orders {
		if existing.OrderNumber == order.OrderNumber {
			return nil, fmt.Errorf("failed to create order: order number %s already exists", order.OrderNumber)
		}
	}

	now := time.Now()
	remaining := make(map[string]decimal.Decimal)
	order.Items = make([]models.OrderItem, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		product, ok := r.store.products[line.ProductID]
		if !ok {
			return nil, &apperrors.NotFoundError{Resource: "product", ID: line.ProductID}
		}
		available, seen := remaining[product.ID]
		if !seen {
			available = product.Quantity
		}
		if product.Availability == models.AvailabilityUnavailable {
			return nil, apperrors.NewValidationError("items", fmt.Sprintf("product %s is unavailable", product.Name))
		}
		requested := decimal.NewFromInt(int64(line.Quantity))
		if available.LessThan(requested) {
			product.Quantity = available
			return nil, insufficientStock(product, line.Quantity)
		}
		remaining[product.ID] = available.Sub(requested)
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       product.Price,
			CreatedAt:   now,
		})
	}

	if err := checkDeclaredTotal(order, cmd.DeclaredTotal); err != nil {
		return nil, err
	}
	order.TotalPrice = cmd.DeclaredTotal

	for id, quantity := range remaining {
		product := r.store.products[id]
		product.Quantity = quantity
		product.UpdatedAt = now
		r.store.products[id] = product
	}
	order.CreatedAt, order.UpdatedAt = now, now
	r.store.orders[order.ID] = cloneOrder(order)
	r.store.appendNotifications(attachOrder(cmd.Notifications, order.ID), now)

	return &order, nil
}

// ApplyPayment flips the order to paid once; later calls report applied=false.
func (r *MockOrderRepository) ApplyPayment(cmd ApplyPaymentCommand) (*models.Order, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[cmd.OrderID]
	if !ok {
		return nil, false, &apperrors.NotFoundError{Resource: "order", ID: cmd.OrderID}
	}
	if order.IsPaid() {
		order = cloneOrder(order)
		return &order, false, nil
	}

	paidAt := cmd.PaidAt
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = models.OrderStatusPaid
	order.PaidAt = &paidAt
	if cmd.Reference != "" {
		order.PaymentReference = cmd.Reference
	}
	order.UpdatedAt = time.Now()
	r.store.orders[order.ID] = order

	if cmd.Notify != nil {
		r.store.appendNotifications([]models.Notification{cmd.Notify(order)}, order.UpdatedAt)
	}
	order = cloneOrder(order)
	return &order, true, nil
}

// AssignDelivery points a delivery person at the order and marks it sent.
func (r *MockOrderRepository) AssignDelivery(cmd AssignDeliveryCommand) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[cmd.OrderID]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "order", ID: cmd.OrderID}
	}

	now := time.Now()
	var person models.DeliveryPerson
	if cmd.DeliveryPersonID != "" {
		person, ok = r.store.deliveryPeople[cmd.DeliveryPersonID]
		if !ok {
			return nil, &apperrors.NotFoundError{Resource: "delivery person", ID: cmd.DeliveryPersonID}
		}
	} else {
		found := false
		for _, p := range r.store.deliveryPeople {
			if p.Phone == cmd.Phone {
				person, found = p, true
				break
			}
		}
		if !found {
			person = models.DeliveryPerson{ID: uuid.New().String(), Name: cmd.Name, Phone: cmd.Phone, CreatedAt: now}
		}
	}

	orderID := order.ID
	person.OrderID = &orderID
	person.UpdatedAt = now
	r.store.deliveryPeople[person.ID] = person

	personID := person.ID
	order.DeliveryPersonID = &personID
	order.DeliveryStatus = models.DeliveryStatusSent
	order.Status = models.OrderStatusOnDelivery
	order.UpdatedAt = now
	r.store.orders[order.ID] = order

	if cmd.Notify != nil {
		r.store.appendNotifications([]models.Notification{cmd.Notify(order, person)}, now)
	}
	order = cloneOrder(order)
	return &order, nil
}

// UpdateStatus sets the order and/or delivery status without transition checks.
func (r *MockOrderRepository) UpdateStatus(cmd UpdateStatusCommand) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[cmd.OrderID]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "order", ID: cmd.OrderID}
	}
	if cmd.Status != nil {
		order.Status = *cmd.Status
	}
	if cmd.DeliveryStatus != nil {
		order.DeliveryStatus = *cmd.DeliveryStatus
	}
	order.UpdatedAt = time.Now()
	r.store.orders[order.ID] = order

	if cmd.Notify != nil {
		r.store.appendNotifications([]models.Notification{cmd.Notify(order)}, order.UpdatedAt)
	}
	order = cloneOrder(order)
	return &order, nil
}
