package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"
	"foodhub/internal/repositories"
	"foodhub/internal/services"
	"foodhub/pkg/paystack"
	"foodhub/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "sk_test_secret"

// MockGateway is a mock implementation of services.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.InitializeResult), args.Error(1)
}

func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Transaction), args.Error(1)
}

type paymentFixture struct {
	*fixture
	gateway   *MockGateway
	publisher *MockPublisher
	payments  *services.PaymentService
	order     *models.Order
}

// newPaymentFixture places one unpaid order of 2 x 1250.25 for the customer.
func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := newFixture(t, nil)
	gateway := new(MockGateway)
	publisher := new(MockPublisher)
	payments := services.NewPaymentService(f.orders, gateway, publisher, services.PaymentConfig{
		Currency:      "NGN",
		CallbackURL:   "https://foodhub.test/payments/callback",
		WebhookSecret: webhookSecret,
	})

	product := f.addProduct(t, "Asun Platter", "1250.25", 10)
	order, err := f.orderService.PlaceOrder(f.customer, orderRequest("2500.50", line(product.ID, 2)))
	require.NoError(t, err)

	return &paymentFixture{fixture: f, gateway: gateway, publisher: publisher, payments: payments, order: order}
}

func (p *paymentFixture) reload(t *testing.T) *models.Order {
	t.Helper()
	order, err := p.orders.GetByID(p.order.ID)
	require.NoError(t, err)
	return order
}

func (p *paymentFixture) paymentNotifications(t *testing.T) int {
	t.Helper()
	count := 0
	for _, n := range p.inbox(t, p.customer) {
		if n.Title == "Payment received" {
			count++
		}
	}
	return count
}

func successfulTransaction(reference, orderID string, amount int64) *paystack.Transaction {
	paidAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &paystack.Transaction{
		ID:          42,
		Status:      paystack.StatusSuccess,
		Reference:   reference,
		Amount:      amount,
		Currency:    "NGN",
		PaidAt:      &paidAt,
		RawMetadata: json.RawMessage(fmt.Sprintf(`{"order_id":%q}`, orderID)),
	}
}

func webhookPayload(t *testing.T, event string, tx *paystack.Transaction) []byte {
	t.Helper()
	payload, err := json.Marshal(paystack.Event{Event: event, Data: *tx})
	require.NoError(t, err)
	return payload
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(250050), services.MinorUnits(decimal.RequireFromString("2500.50")))
	assert.Equal(t, int64(100), services.MinorUnits(decimal.RequireFromString("0.995")))
	assert.Equal(t, "2500.5", services.FromMinorUnits(250050).String())
}

func TestInitializePayment(t *testing.T) {
	p := newPaymentFixture(t)

	p.gateway.On("InitializeTransaction", mock.Anything, mock.MatchedBy(func(req paystack.InitializeRequest) bool {
		return req.Amount == 250050 &&
			req.Currency == "NGN" &&
			req.Email == "ada@example.com" &&
			req.Metadata.OrderID == p.order.ID &&
			req.CallbackURL == "https://foodhub.test/payments/callback"
	})).Return(&paystack.InitializeResult{AuthorizationURL: "https://checkout.paystack.com/x", AccessCode: "x"}, nil).Once()

	result, err := p.payments.InitializePayment(context.Background(), p.customer, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/x", result.AuthorizationURL)
	assert.Contains(t, result.Reference, p.order.OrderNumber)
	assert.Equal(t, result.Reference, p.reload(t).PaymentReference)
	p.gateway.AssertExpectations(t)
}

func TestInitializePayment_Rejections(t *testing.T) {
	p := newPaymentFixture(t)
	stranger := p.addUser(t, "stranger", models.RoleCustomer)
	ctx := context.Background()

	_, err := p.payments.InitializePayment(ctx, p.customer, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "nope"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = p.payments.InitializePayment(ctx, p.customer, services.InitializePaymentRequest{OrderID: "missing", Email: "ada@example.com"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = p.payments.InitializePayment(ctx, stranger, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "s@example.com"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	p.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(nil, &paystack.Error{Message: "dial tcp: i/o timeout", Unavailable: true}).Once()
	_, err = p.payments.InitializePayment(ctx, p.customer, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "ada@example.com"})
	var gatewayErr *apperrors.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.True(t, gatewayErr.Unavailable)
	assert.Empty(t, p.reload(t).PaymentReference)

	p.gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
		Return(nil, &paystack.Error{StatusCode: 400, Message: "Invalid key"}).Once()
	_, err = p.payments.InitializePayment(ctx, p.customer, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "ada@example.com"})
	require.ErrorAs(t, err, &gatewayErr)
	assert.False(t, gatewayErr.Unavailable)

	_, _, err = p.orders.ApplyPayment(repositories.ApplyPaymentCommand{OrderID: p.order.ID, PaidAt: time.Now()})
	require.NoError(t, err)
	_, err = p.payments.InitializePayment(ctx, p.customer, services.InitializePaymentRequest{OrderID: p.order.ID, Email: "ada@example.com"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	p.gateway.AssertExpectations(t)
}

func TestVerifyPayment_AppliesOnce(t *testing.T) {
	p := newPaymentFixture(t)
	require.NoError(t, p.orders.SetPaymentReference(p.order.ID, "ref-1"))
	p.gateway.On("VerifyTransaction", mock.Anything, "ref-1").Return(successfulTransaction("ref-1", p.order.ID, 250050), nil)
	p.publisher.On("Publish", rabbitmq.OrdersExchange, services.EventOrderPaid, mock.Anything).Return(nil).Once()

	first, err := p.payments.VerifyPayment(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, models.PaymentStatusPaid, first.PaymentStatus)
	assert.Equal(t, p.order.ID, first.OrderID)
	assert.Equal(t, "2500.5", first.Amount.String())

	second, err := p.payments.VerifyPayment(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, models.PaymentStatusPaid, second.PaymentStatus)

	order := p.reload(t)
	assert.True(t, order.IsPaid())
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, 2025, order.PaidAt.Year())
	assert.Equal(t, 1, p.paymentNotifications(t))
	p.publisher.AssertExpectations(t)
}

func TestVerifyPayment_NoStateChangeUnlessSettled(t *testing.T) {
	p := newPaymentFixture(t)
	ctx := context.Background()

	_, err := p.payments.VerifyPayment(ctx, "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	abandoned := successfulTransaction("ref-a", p.order.ID, 250050)
	abandoned.Status = "abandoned"
	p.gateway.On("VerifyTransaction", mock.Anything, "ref-a").Return(abandoned, nil).Once()
	result, err := p.payments.VerifyPayment(ctx, "ref-a")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", result.Status)
	assert.False(t, result.Applied)
	assert.Equal(t, models.PaymentStatusUnpaid, result.PaymentStatus)

	p.gateway.On("VerifyTransaction", mock.Anything, "ref-short").Return(successfulTransaction("ref-short", p.order.ID, 100), nil).Once()
	_, err = p.payments.VerifyPayment(ctx, "ref-short")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	p.gateway.On("VerifyTransaction", mock.Anything, "ref-down").Return(nil, &paystack.Error{Message: "timeout", Unavailable: true}).Once()
	_, err = p.payments.VerifyPayment(ctx, "ref-down")
	assert.Equal(t, apperrors.KindGateway, apperrors.KindOf(err))

	orphan := successfulTransaction("ref-orphan", "", 250050)
	orphan.RawMetadata = nil
	p.gateway.On("VerifyTransaction", mock.Anything, "ref-orphan").Return(orphan, nil).Once()
	_, err = p.payments.VerifyPayment(ctx, "ref-orphan")
	assert.True(t, apperrors.IsNotFound(err))

	assert.False(t, p.reload(t).IsPaid())
	assert.Zero(t, p.paymentNotifications(t))
	p.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook(t *testing.T) {
	p := newPaymentFixture(t)
	p.publisher.On("Publish", rabbitmq.OrdersExchange, services.EventOrderPaid, mock.Anything).Return(nil).Once()

	payload := webhookPayload(t, paystack.EventChargeSuccess, successfulTransaction("wh-ref", p.order.ID, 250050))

	err := p.payments.HandleWebhook(payload, paystack.Sign("forged", payload))
	assert.Equal(t, apperrors.KindAuthenticity, apperrors.KindOf(err))
	err = p.payments.HandleWebhook(payload, "")
	assert.Equal(t, apperrors.KindAuthenticity, apperrors.KindOf(err))
	assert.False(t, p.reload(t).IsPaid())

	garbage := []byte("{not json")
	err = p.payments.HandleWebhook(garbage, paystack.Sign(webhookSecret, garbage))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	transfer := webhookPayload(t, "transfer.success", successfulTransaction("wh-ref", p.order.ID, 250050))
	assert.NoError(t, p.payments.HandleWebhook(transfer, paystack.Sign(webhookSecret, transfer)))

	unknown := webhookPayload(t, paystack.EventChargeSuccess, successfulTransaction("other-ref", "no-such-order", 250050))
	assert.NoError(t, p.payments.HandleWebhook(unknown, paystack.Sign(webhookSecret, unknown)))

	short := webhookPayload(t, paystack.EventChargeSuccess, successfulTransaction("wh-ref", p.order.ID, 250049))
	assert.NoError(t, p.payments.HandleWebhook(short, paystack.Sign(webhookSecret, short)))
	assert.False(t, p.reload(t).IsPaid())

	signature := paystack.Sign(webhookSecret, payload)
	require.NoError(t, p.payments.HandleWebhook(payload, signature))
	require.NoError(t, p.payments.HandleWebhook(payload, signature))

	order := p.reload(t)
	assert.True(t, order.IsPaid())
	assert.Equal(t, "wh-ref", order.PaymentReference)
	assert.Equal(t, 1, p.paymentNotifications(t))
	p.gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
	p.publisher.AssertExpectations(t)
}

func TestPaymentConfirmationIsExactlyOnceUnderConcurrency(t *testing.T) {
	p := newPaymentFixture(t)
	require.NoError(t, p.orders.SetPaymentReference(p.order.ID, "race-ref"))
	tx := successfulTransaction("race-ref", p.order.ID, 250050)
	p.gateway.On("VerifyTransaction", mock.Anything, "race-ref").Return(tx, nil)
	p.publisher.On("Publish", rabbitmq.OrdersExchange, services.EventOrderPaid, mock.Anything).Return(nil).Once()

	payload := webhookPayload(t, paystack.EventChargeSuccess, tx)
	signature := paystack.Sign(webhookSecret, payload)

	const rounds = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < rounds; i++ {
		wg.Add(3)
		for j := 0; j < 2; j++ {
			go func() {
				defer wg.Done()
				result, err := p.payments.VerifyPayment(context.Background(), "race-ref")
				if !assert.NoError(t, err) {
					return
				}
				if result.Applied {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		go func() {
			defer wg.Done()
			assert.NoError(t, p.payments.HandleWebhook(payload, signature))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, applied, 1)
	assert.True(t, p.reload(t).IsPaid())
	assert.Equal(t, 1, p.paymentNotifications(t))
	p.publisher.AssertExpectations(t)
}

func TestGatewayErrorsKeepTheirCause(t *testing.T) {
	p := newPaymentFixture(t)
	cause := &paystack.Error{StatusCode: 502, Message: "bad gateway", Unavailable: true}
	p.gateway.On("VerifyTransaction", mock.Anything, "ref").Return(nil, cause).Once()

	_, err := p.payments.VerifyPayment(context.Background(), "ref")

	var paystackErr *paystack.Error
	require.True(t, errors.As(err, &paystackErr))
	assert.Equal(t, 502, paystackErr.StatusCode)
}

func TestVerifyPayment_RejectsReferencesOutsideOnePathSegment(t *testing.T) {
	p := newPaymentFixture(t)

	for _, reference := range []string{"../../customer?perPage=100", "ref/1", "ref#frag", "..", "ref%2F1"} {
		_, err := p.payments.VerifyPayment(context.Background(), reference)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), reference)
	}
	p.gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
}
