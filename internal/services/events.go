package services

import (
	"encoding/json"
	"log"
	"time"

	"foodhub/internal/models"
	"foodhub/pkg/rabbitmq"
)

// Routing keys for order events.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderPaid    = "order.paid"
)

// EventPublisher sends a message to a broker exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderEvent is the body of every order event.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	DeliveryStatus string    `json:"delivery_status"`
	TotalPrice     string    `json:"total_price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// publishOrderEvent is best-effort: the state change has already committed,
// so a broker failure is logged and not returned.
func publishOrderEvent(publisher EventPublisher, routingKey string, order *models.Order) {
	if publisher == nil {
		log.Printf("Event publisher is not configured. Skipping %s for order %s.", routingKey, order.ID)
		return
	}
	body, err := json.Marshal(OrderEvent{
		Type:           routingKey,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Status:         order.Status,
		PaymentStatus:  string(order.PaymentStatus),
		DeliveryStatus: string(order.DeliveryStatus),
		TotalPrice:     order.TotalPrice.StringFixed(2),
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := publisher.Publish(rabbitmq.OrdersExchange, routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

// DecodeOrderEvent parses a message body published by this service.
func DecodeOrderEvent(body []byte) (OrderEvent, error) {
	var event OrderEvent
	err := json.Unmarshal(body, &event)
	return event, err
}
