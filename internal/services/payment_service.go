package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"
	"foodhub/internal/repositories"
	"foodhub/pkg/paystack"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the subset of the Paystack API the service needs.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// PaymentConfig holds gateway settings that are not part of the client.
type PaymentConfig struct {
	Currency      string
	CallbackURL   string
	WebhookSecret string
}

// InitializePaymentRequest starts a payment for an order.
type InitializePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// InitializePaymentResult tells the client where to send the payer.
type InitializePaymentResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyPaymentResult reports what the gateway says about a reference, and
// whether this call was the one that marked the order paid.
type VerifyPaymentResult struct {
	Reference     string               `json:"reference"`
	Status        string               `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	OrderID       string               `json:"order_id,omitempty"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
	Applied       bool                 `json:"applied"`
}

// PaymentService reconciles orders with the payment gateway.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	gateway   PaymentGateway
	publisher EventPublisher
	cfg       PaymentConfig
	now       func() time.Time
}

// NewPaymentService creates a new PaymentService. publisher may be nil.
func NewPaymentService(orderRepo repositories.OrderRepository, gateway PaymentGateway, publisher EventPublisher, cfg PaymentConfig) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// MinorUnits converts a major-unit amount to the gateway's integer minor unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts a gateway amount back to major units.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// InitializePayment opens a gateway session for an unpaid order and stores the
// new reference on it. Gateway failures are not retried.
func (s *PaymentService) InitializePayment(ctx context.Context, identity Identity, req InitializePaymentRequest) (*InitializePaymentResult, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(req.OrderID)
	if err != nil {
		return nil, err
	}
	if !identity.canAccess(order) {
		return nil, &apperrors.ForbiddenError{Reason: fmt.Sprintf("order %s belongs to another user", order.ID)}
	}
	if order.IsPaid() {
		return nil, &apperrors.ConflictError{Reason: fmt.Sprintf("order %s is already paid", order.OrderNumber)}
	}

	reference := fmt.Sprintf("%s-%d", order.OrderNumber, s.now().UnixNano())
	session, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       req.Email,
		Amount:      MinorUnits(order.TotalPrice),
		Currency:    s.cfg.Currency,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
		Metadata:    paystack.Metadata{OrderID: order.ID, OrderNumber: order.OrderNumber},
	})
	if err != nil {
		log.Printf("Payment initialization for order %s failed: %v", order.OrderNumber, err)
		return nil, gatewayError("initialize", err)
	}
	if session.Reference != "" {
		reference = session.Reference
	}

	if err := s.orderRepo.SetPaymentReference(order.ID, reference); err != nil {
		return nil, err
	}

	log.Printf("Payment session %s opened for order %s", reference, order.OrderNumber)
	return &InitializePaymentResult{
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        reference,
	}, nil
}

// VerifyPayment asks the gateway about reference and, on success, marks the
// matching order paid. Repeated calls are harmless: the result is reported
// each time, the transition and its notification happen once.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*VerifyPaymentResult, error) {
	if reference == "" {
		return nil, apperrors.NewValidationError("reference", "reference is required")
	}
	if !paystack.ValidReference(reference) {
		return nil, apperrors.NewValidationError("reference", "reference may only contain letters, digits, '-', '.', '=' and '_'")
	}
	tx, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		log.Printf("Payment verification for %s failed: %v", reference, err)
		return nil, gatewayError("verify", err)
	}

	result := &VerifyPaymentResult{
		Reference: reference,
		Status:    tx.Status,
		Amount:    FromMinorUnits(tx.Amount),
		Currency:  tx.Currency,
		PaidAt:    tx.PaidAt,
	}

	order, err := s.resolveOrder(reference, tx.Metadata().OrderID)
	if err != nil {
		if tx.Status != paystack.StatusSuccess && apperrors.IsNotFound(err) {
			return result, nil
		}
		return nil, err
	}
	result.OrderID = order.ID
	result.PaymentStatus = order.PaymentStatus

	if tx.Status != paystack.StatusSuccess {
		return result, nil
	}
	if err := checkPaidAmount(order, tx.Amount); err != nil {
		log.Printf("Refusing to confirm order %s: %v", order.OrderNumber, err)
		return nil, err
	}

	updated, applied, err := s.confirmPayment(order.ID, reference, tx.PaidAt)
	if err != nil {
		return nil, err
	}
	result.PaymentStatus = updated.PaymentStatus
	result.Applied = applied
	return result, nil
}

// HandleWebhook authenticates a gateway callback and applies charge.success
// events. It returns nil for every authenticated event whose side effect is
// already applied or cannot be applied, so gateway retries stay harmless.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	if !paystack.ValidSignature(s.cfg.WebhookSecret, payload, signature) {
		log.Printf("Rejected webhook with invalid signature")
		return &apperrors.AuthenticityError{Reason: "signature mismatch"}
	}

	event, err := paystack.ParseEvent(payload)
	if err != nil {
		return apperrors.NewValidationError("body", err.Error())
	}
	if event.Event != paystack.EventChargeSuccess {
		log.Printf("Ignoring webhook event %s", event.Event)
		return nil
	}

	order, err := s.resolveOrder(event.Data.Reference, event.Data.Metadata().OrderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			log.Printf("Webhook charge.success for unknown order (reference %s): %v", event.Data.Reference, err)
			return nil
		}
		return err
	}
	if err := checkPaidAmount(order, event.Data.Amount); err != nil {
		log.Printf("Webhook charge.success for order %s not applied: %v", order.OrderNumber, err)
		return nil
	}

	if _, _, err := s.confirmPayment(order.ID, event.Data.Reference, event.Data.PaidAt); err != nil {
		if apperrors.IsNotFound(err) {
			log.Printf("Webhook order %s disappeared before confirmation", order.ID)
			return nil
		}
		return err
	}
	return nil
}

// resolveOrder finds the order by payment reference first, then by the order
// id carried in the transaction metadata.
func (s *PaymentService) resolveOrder(reference, metadataOrderID string) (*models.Order, error) {
	if reference != "" {
		order, err := s.orderRepo.GetByReference(reference)
		if err == nil {
			return order, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}
	if metadataOrderID == "" {
		return nil, &apperrors.NotFoundError{Resource: "order", ID: reference}
	}
	return s.orderRepo.GetByID(metadataOrderID)
}

func (s *PaymentService) confirmPayment(orderID, reference string, paidAt *time.Time) (*models.Order, bool, error) {
	at := s.now().UTC()
	if paidAt != nil {
		at = paidAt.UTC()
	}
	order, applied, err := s.orderRepo.ApplyPayment(repositories.ApplyPaymentCommand{
		OrderID:   orderID,
		Reference: reference,
		PaidAt:    at,
		Notify: func(order models.Order) models.Notification {
			return orderNotification(order, "Payment received",
				fmt.Sprintf("Payment of %s for order %s was confirmed.", order.TotalPrice.StringFixed(2), order.OrderNumber))
		},
	})
	if err != nil {
		return nil, false, err
	}
	if !applied {
		log.Printf("Order %s already paid; confirmation for %s is a no-op", order.OrderNumber, reference)
		return order, false, nil
	}

	log.Printf("Order %s marked paid (reference %s)", order.OrderNumber, reference)
	publishOrderEvent(s.publisher, EventOrderPaid, order)
	return order, true, nil
}

func checkPaidAmount(order *models.Order, paidMinor int64) error {
	if expected := MinorUnits(order.TotalPrice); paidMinor < expected {
		return &apperrors.ConflictError{Reason: fmt.Sprintf("paid amount %d is below order total %d", paidMinor, expected)}
	}
	return nil
}

func gatewayError(op string, err error) error {
	unavailable := true
	var paystackErr *paystack.Error
	if errors.As(err, &paystackErr) {
		unavailable = paystackErr.Unavailable
	}
	return &apperrors.GatewayError{Op: op, Unavailable: unavailable, Err: err}
}
