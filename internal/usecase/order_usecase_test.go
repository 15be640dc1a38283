package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func orderRepos() (*OrderRepoMock, *OrderItemRepoMock, *OrderEventRepoMock, *InventoryRepoMock, *DiscountRepoMock, *TxManagerStub) {
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	orderEvents := new(OrderEventRepoMock)
	inventory := new(InventoryRepoMock)
	discounts := new(DiscountRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{
		orders: orders, orderItems: orderItems, orderEvents: orderEvents,
		inventory: inventory, discounts: discounts,
	}}
	return orders, orderItems, orderEvents, inventory, discounts, tx
}

func TestGetOrder(t *testing.T) {
	orders, orderItems, orderEvents, _, _, tx := orderRepos()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPaid, SubtotalCents: 3000, TotalCents: 3470, Currency: "USD",
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 10, SKU: "TEE-M", NameSnapshot: "Tee", UnitPriceCents: 1500, Quantity: 2, LineTotalCents: 3000},
	}, nil)
	orderEvents.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderEvent{
		{OrderID: 42, Type: model.OrderEventCreated, ToStatus: model.OrderStatusPending},
		{OrderID: 42, Type: model.OrderEventStatusChanged, FromStatus: model.OrderStatusAwaitingPayment, ToStatus: model.OrderStatusPaid},
	}, nil)

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	out, err := uc.GetOrder(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, "PAID", out.Status)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "Tee", out.Items[0].Name)
	assert.Len(t, out.Events, 2)

	_, err = uc.GetOrder(context.Background(), 0)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders, _, _, _, _, tx := orderRepos()
	orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	_, err := uc.GetOrder(context.Background(), 99)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	orders, _, _, _, _, tx := orderRepos()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPending,
	}, nil)

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	_, err := uc.UpdateStatus(context.Background(), 42, usecase.UpdateOrderStatusInput{Status: "PAID"})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "Invalid transition from PENDING to PAID; allowed: [AWAITING_PAYMENT, CANCELED]", he.Message)
	// 拒否したときはステータスを触らない
	orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	uc := usecase.NewOrderUsecase(&TxManagerStub{}, nil, zerolog.Nop())

	_, err := uc.UpdateStatus(context.Background(), 42, usecase.UpdateOrderStatusInput{Status: "SHIPPED"})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "invalid status", he.Message)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	orders, orderItems, orderEvents, _, _, tx := orderRepos()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusAwaitingPayment,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)
	orderEvents.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderEvent{}, nil)

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	out, err := uc.UpdateStatus(context.Background(), 42, usecase.UpdateOrderStatusInput{Status: "AWAITING_PAYMENT"})

	assert.NoError(t, err)
	assert.Equal(t, "AWAITING_PAYMENT", out.Status)
	orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orderEvents.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestUpdateStatus_CancelReleasesStockAndDiscount(t *testing.T) {
	orders, orderItems, orderEvents, inventory, discounts, tx := orderRepos()

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusAwaitingPayment, DiscountCode: "SUMMER10",
	}, nil)
	orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusAwaitingPayment, model.OrderStatusCanceled).Return(true, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, VariantID: 100, Quantity: 2},
	}, nil)
	inventory.On("IncreaseStock", mock.Anything, int64(100), int64(2)).Return(nil)
	discounts.On("FindByCode", mock.Anything, "SUMMER10").Return(model.DiscountCode{ID: 3, Code: "SUMMER10"}, nil)
	discounts.On("DecrementUsage", mock.Anything, int64(3)).Return(nil)
	orderEvents.On("Append", mock.Anything, mock.AnythingOfType("model.OrderEvent")).Return(nil)
	orderEvents.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderEvent{}, nil)

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	out, err := uc.UpdateStatus(context.Background(), 42, usecase.UpdateOrderStatusInput{Status: "CANCELED"})

	assert.NoError(t, err)
	assert.Equal(t, "CANCELED", out.Status)
	inventory.AssertCalled(t, "IncreaseStock", mock.Anything, int64(100), int64(2))
	discounts.AssertCalled(t, "DecrementUsage", mock.Anything, int64(3))
}

func TestUpdateStatus_ConcurrentTransitionWins(t *testing.T) {
	orders, _, _, _, _, tx := orderRepos()

	// 読んだ時点ではAWAITING_PAYMENTだが、書く前に別の遷移が入っていた
	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusAwaitingPayment,
	}, nil).Once()
	orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusAwaitingPayment, model.OrderStatusCanceled).Return(false, nil)
	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPaid,
	}, nil).Once()

	uc := usecase.NewOrderUsecase(tx, nil, zerolog.Nop())

	_, err := uc.UpdateStatus(context.Background(), 42, usecase.UpdateOrderStatusInput{Status: "CANCELED"})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Equal(t, "Invalid transition from PAID to CANCELED; allowed: []", he.Message)
}
