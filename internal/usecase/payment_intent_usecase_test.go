package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/infra/payment"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ProviderFake は呼び出し回数を数えるだけの決済プロバイダ。
type ProviderFake struct {
	intent payment.Intent
	err    error
	calls  int
}

func (f *ProviderFake) CreateIntent(ctx context.Context, orderID int64, amountCents int64, currency string) (payment.Intent, error) {
	f.calls++
	if f.err != nil {
		return payment.Intent{}, f.err
	}
	return f.intent, nil
}

func TestCreateIntent_NewIntent(t *testing.T) {
	orders := new(OrderRepoMock)
	orderEvents := new(OrderEventRepoMock)
	payments := new(PaymentRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders, orderEvents: orderEvents, payments: payments}}

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPending, TotalCents: 3470, Currency: "USD",
	}, nil)
	payments.On("FindPendingByOrderID", mock.Anything, int64(42)).Return(model.PaymentRecord{}, false, nil)
	payments.On("Create", mock.Anything, mock.AnythingOfType("model.PaymentRecord")).Return(int64(5), nil)
	orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusPending, model.OrderStatusAwaitingPayment).Return(true, nil)
	orderEvents.On("Append", mock.Anything, mock.AnythingOfType("model.OrderEvent")).Return(nil)

	provider := &ProviderFake{intent: payment.Intent{ID: "pi_123", ClientSecret: "cs_abc"}}
	uc := usecase.NewPaymentIntentUsecase(tx, provider, zerolog.Nop(), 5*time.Second)

	out, err := uc.CreateIntent(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", out.PaymentIntentID)
	assert.Equal(t, "cs_abc", out.ClientSecret)
	assert.False(t, out.Reused)
	assert.Equal(t, 1, provider.calls)

	created := payments.Calls[2].Arguments.Get(1).(model.PaymentRecord)
	assert.Equal(t, int64(42), created.OrderID)
	assert.Equal(t, int64(3470), created.AmountCents)
	assert.Equal(t, model.PaymentStatusPending, created.Status)
	orders.AssertCalled(t, "UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusPending, model.OrderStatusAwaitingPayment)
}

func TestCreateIntent_ReusesPendingRecord(t *testing.T) {
	orders := new(OrderRepoMock)
	payments := new(PaymentRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders, payments: payments}}

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusAwaitingPayment, TotalCents: 3470, Currency: "USD",
	}, nil)
	payments.On("FindPendingByOrderID", mock.Anything, int64(42)).Return(model.PaymentRecord{
		ID: 5, OrderID: 42, ProviderRef: "pi_123", ClientSecret: "cs_abc", Status: model.PaymentStatusPending,
	}, true, nil)

	provider := &ProviderFake{intent: payment.Intent{ID: "pi_should_not_be_created"}}
	uc := usecase.NewPaymentIntentUsecase(tx, provider, zerolog.Nop(), 5*time.Second)

	out, err := uc.CreateIntent(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", out.PaymentIntentID)
	assert.Equal(t, "cs_abc", out.ClientSecret)
	assert.True(t, out.Reused)
	// 既存intentがあるならプロバイダは呼ばない
	assert.Equal(t, 0, provider.calls)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateIntent_OrderNotPayable(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders}}

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPaid,
	}, nil)

	provider := &ProviderFake{}
	uc := usecase.NewPaymentIntentUsecase(tx, provider, zerolog.Nop(), 5*time.Second)

	_, err := uc.CreateIntent(context.Background(), 42)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Equal(t, usecase.CodeOrderNotPayable, he.Message)
	assert.Equal(t, 0, provider.calls)
}

func TestCreateIntent_OrderNotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders}}

	orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewPaymentIntentUsecase(tx, &ProviderFake{}, zerolog.Nop(), 5*time.Second)

	_, err := uc.CreateIntent(context.Background(), 99)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, usecase.CodeOrderNotFound, he.Message)
}

func TestCreateIntent_CircuitOpen(t *testing.T) {
	orders := new(OrderRepoMock)
	payments := new(PaymentRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders, payments: payments}}

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPending, TotalCents: 3470, Currency: "USD",
	}, nil)
	payments.On("FindPendingByOrderID", mock.Anything, int64(42)).Return(model.PaymentRecord{}, false, nil)

	provider := &ProviderFake{err: payment.ErrCircuitOpen}
	uc := usecase.NewPaymentIntentUsecase(tx, provider, zerolog.Nop(), 5*time.Second)

	_, err := uc.CreateIntent(context.Background(), 42)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, he.Status)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateIntent_LosesRaceToConcurrentRequest(t *testing.T) {
	orders := new(OrderRepoMock)
	payments := new(PaymentRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{orders: orders, payments: payments}}

	orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPending, TotalCents: 3470, Currency: "USD",
	}, nil)
	// 1回目（読み取りtx）は無し、2回目（書き込みtx）では相手が先に作っている
	payments.On("FindPendingByOrderID", mock.Anything, int64(42)).Return(model.PaymentRecord{}, false, nil).Once()
	payments.On("FindPendingByOrderID", mock.Anything, int64(42)).Return(model.PaymentRecord{
		ID: 6, OrderID: 42, ProviderRef: "pi_other", ClientSecret: "cs_other", Status: model.PaymentStatusPending,
	}, true, nil).Once()

	provider := &ProviderFake{intent: payment.Intent{ID: "pi_mine", ClientSecret: "cs_mine"}}
	uc := usecase.NewPaymentIntentUsecase(tx, provider, zerolog.Nop(), 5*time.Second)

	out, err := uc.CreateIntent(context.Background(), 42)

	// 負けた側は相手のintentを返す
	assert.NoError(t, err)
	assert.Equal(t, "pi_other", out.PaymentIntentID)
	assert.True(t, out.Reused)
	assert.Equal(t, 1, provider.calls)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
