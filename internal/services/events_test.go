package services_test

import (
	"errors"
	"testing"

	"foodhub/internal/models"
	"foodhub/internal/services"
	"foodhub/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatedEventCarriesOrderState(t *testing.T) {
	publisher := new(MockPublisher)
	var body []byte
	publisher.On("Publish", rabbitmq.OrdersExchange, services.EventOrderCreated, mock.Anything).
		Run(func(args mock.Arguments) { body = args.Get(2).([]byte) }).
		Return(nil).Once()

	f := newFixture(t, publisher)
	rice := f.addProduct(t, "Ofada Rice", "1000", 10)
	order, err := f.orderService.PlaceOrder(f.customer, orderRequest("2000", line(rice.ID, 2)))
	require.NoError(t, err)

	event, err := services.DecodeOrderEvent(body)
	require.NoError(t, err)
	assert.Equal(t, services.EventOrderCreated, event.Type)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, order.OrderNumber, event.OrderNumber)
	assert.Equal(t, f.customer.UserID, event.UserID)
	assert.Equal(t, string(models.PaymentStatusUnpaid), event.PaymentStatus)
	assert.Equal(t, "2000.00", event.TotalPrice)
	assert.False(t, event.OccurredAt.IsZero())
	publisher.AssertExpectations(t)
}

func TestBrokerFailureDoesNotFailTheOrder(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

	f := newFixture(t, publisher)
	rice := f.addProduct(t, "Ofada Rice", "1000", 10)
	_, err := f.orderService.PlaceOrder(f.customer, orderRequest("1000", line(rice.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "9", f.stock(t, rice.ID))
	publisher.AssertExpectations(t)
}

func TestDecodeOrderEventRejectsGarbage(t *testing.T) {
	_, err := services.DecodeOrderEvent([]byte("<xml/>"))
	assert.Error(t, err)
}
