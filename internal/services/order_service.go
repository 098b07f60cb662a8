package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"
	"foodhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineRequest is one requested line of an order.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// PlaceOrderRequest is the body of an order placement. The owner comes from the
// caller's Identity, never from the request.
type PlaceOrderRequest struct {
	Items         []OrderLineRequest   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=card delivery"`
	Address       string               `json:"address" validate:"required,max=500"`
	Phone         string               `json:"phone" validate:"required,min=7,max=20"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
}

// AssignDeliveryRequest names a delivery person by id, or by name and phone.
type AssignDeliveryRequest struct {
	DeliveryPersonID string `json:"delivery_person_id"`
	Name             string `json:"name" validate:"omitempty,max=100"`
	Phone            string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// UpdateStatusRequest sets the order status, the delivery status, or both.
type UpdateStatusRequest struct {
	Status         *string                `json:"status"`
	DeliveryStatus *models.DeliveryStatus `json:"delivery_status"`
}

// Order statuses staff may set directly. "paid" is reserved for payment reconciliation.
var settableOrderStatuses = map[string]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusOnDelivery: true,
	models.OrderStatusCompleted:  true,
	models.OrderStatusCancelled:  true,
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceOrder validates the request and hands the whole placement to the
// repository as one atomic command. Card and delivery orders both start
// unpaid; only payment reconciliation marks an order paid.
func (s *OrderService) PlaceOrder(identity Identity, req PlaceOrderRequest) (*models.Order, error) {
	if identity.UserID == "" {
		return nil, &apperrors.ForbiddenError{Reason: "an authenticated user is required to place an order"}
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.TotalPrice.IsNegative() {
		return nil, apperrors.NewValidationError("total_price", "must not be negative")
	}

	staffIDs, err := s.userRepo.GetIDsByRoles(models.RoleAdmin, models.RoleOrderManager)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order staff: %w", err)
	}

	order := models.Order{
		ID:             uuid.New().String(),
		OrderNumber:    newOrderNumber(s.now()),
		UserID:         identity.UserID,
		PaymentMethod:  req.PaymentMethod,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusUnpaid,
		DeliveryStatus: models.DeliveryStatusPending,
		Address:        strings.TrimSpace(req.Address),
		Phone:          strings.TrimSpace(req.Phone),
	}

	lines := make([]repositories.OrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = repositories.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	notifications := make([]models.Notification, 0, len(staffIDs))
	for _, staffID := range staffIDs {
		notifications = append(notifications, models.Notification{
			UserID:  staffID,
			Title:   "New order received",
			Message: fmt.Sprintf("Order %s was placed (%s, %s) and is awaiting processing.", order.OrderNumber, req.PaymentMethod, req.TotalPrice.StringFixed(2)),
			Type:    models.NotificationTypeOrderUpdate,
		})
	}

	created, err := s.orderRepo.PlaceOrder(repositories.PlaceOrderCommand{
		Order:         order,
		Lines:         lines,
		DeclaredTotal: req.TotalPrice,
		Notifications: notifications,
	})
	if err != nil {
		log.Printf("Order placement for user %s aborted: %v", identity.UserID, err)
		return nil, err
	}

	log.Printf("Order %s placed by user %s for %s", created.OrderNumber, created.UserID, created.TotalPrice.StringFixed(2))
	publishOrderEvent(s.publisher, EventOrderCreated, created)
	return created, nil
}

// ListOrders returns every order for staff and the caller's own orders otherwise.
func (s *OrderService) ListOrders(identity Identity) ([]models.Order, error) {
	if identity.IsStaff() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetByUser(identity.UserID)
}

// GetOrder returns one order the caller owns, or any order for staff.
func (s *OrderService) GetOrder(identity Identity, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !identity.canAccess(order) {
		return nil, &apperrors.ForbiddenError{Reason: fmt.Sprintf("order %s belongs to another user", id)}
	}
	return order, nil
}

// AssignDelivery hands the order to a delivery person and tells the owner.
func (s *OrderService) AssignDelivery(identity Identity, orderID string, req AssignDeliveryRequest) (*models.Order, error) {
	if !identity.IsStaff() {
		return nil, &apperrors.ForbiddenError{Reason: "only staff can assign deliveries"}
	}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.DeliveryPersonID == "" && (req.Name == "" || req.Phone == "") {
		return nil, &apperrors.ValidationError{Fields: map[string]string{
			"delivery_person_id": "either delivery_person_id or name and phone is required",
		}}
	}

	order, err := s.orderRepo.AssignDelivery(repositories.AssignDeliveryCommand{
		OrderID:          orderID,
		DeliveryPersonID: req.DeliveryPersonID,
		Name:             req.Name,
		Phone:            req.Phone,
		Notify: func(order models.Order, person models.DeliveryPerson) models.Notification {
			return orderNotification(order, "Order on its way",
				fmt.Sprintf("Your order %s is on its way with %s (%s).", order.OrderNumber, person.Name, person.Phone))
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s assigned for delivery by %s", order.OrderNumber, identity.UserID)
	publishOrderEvent(s.publisher, EventOrderUpdated, order)
	return order, nil
}

// UpdateStatus sets the order and/or delivery status. Any allowed value can be
// set from any other; there is no transition graph.
func (s *OrderService) UpdateStatus(identity Identity, orderID string, req UpdateStatusRequest) (*models.Order, error) {
	if !identity.IsStaff() {
		return nil, &apperrors.ForbiddenError{Reason: "only staff can update order status"}
	}
	if req.Status == nil && req.DeliveryStatus == nil {
		return nil, apperrors.NewValidationError("status", "status or delivery_status is required")
	}
	fields := map[string]string{}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		req.Status = &status
		if status == models.OrderStatusPaid {
			fields["status"] = "paid is set by payment confirmation only"
		} else if !settableOrderStatuses[status] {
			fields["status"] = fmt.Sprintf("invalid order status: %s", status)
		}
	}
	if req.DeliveryStatus != nil && !req.DeliveryStatus.Valid() {
		fields["delivery_status"] = fmt.Sprintf("invalid delivery status: %s", *req.DeliveryStatus)
	}
	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	order, err := s.orderRepo.UpdateStatus(repositories.UpdateStatusCommand{
		OrderID:        orderID,
		Status:         req.Status,
		DeliveryStatus: req.DeliveryStatus,
		Notify: func(order models.Order) models.Notification {
			return orderNotification(order, "Order status updated",
				fmt.Sprintf("Your order %s is now %s (delivery: %s).", order.OrderNumber, order.Status, order.DeliveryStatus))
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s status set to %q, delivery %q by %s", order.OrderNumber, order.Status, order.DeliveryStatus, identity.UserID)
	publishOrderEvent(s.publisher, EventOrderUpdated, order)
	return order, nil
}

func orderNotification(order models.Order, title, message string) models.Notification {
	orderID := order.ID
	return models.Notification{
		UserID:  order.UserID,
		OrderID: &orderID,
		Title:   title,
		Message: message,
		Type:    models.NotificationTypeOrderUpdate,
	}
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("060102"), suffix)
}
