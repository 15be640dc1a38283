package usecase_test

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerStub は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerStub struct {
	Repos repo.TxRepos
}

func (m *TxManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

// TxReposStub はテストで使うリポジトリだけ詰める。未設定のものを呼んだらnil panicで気づける
type TxReposStub struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	orderEvents   repo.OrderEventRepository
	carts         repo.CartRepository
	cartItems     repo.CartItemRepository
	inventory     repo.InventoryRepository
	products      repo.ProductRepository
	variants      repo.VariantRepository
	discounts     repo.DiscountRepository
	payments      repo.PaymentRecordRepository
	webhookEvents repo.WebhookEventRepository
}

func (r *TxReposStub) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposStub) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposStub) OrderEvents() repo.OrderEventRepository     { return r.orderEvents }
func (r *TxReposStub) Carts() repo.CartRepository                 { return r.carts }
func (r *TxReposStub) CartItems() repo.CartItemRepository         { return r.cartItems }
func (r *TxReposStub) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposStub) Products() repo.ProductRepository           { return r.products }
func (r *TxReposStub) Variants() repo.VariantRepository           { return r.variants }
func (r *TxReposStub) Discounts() repo.DiscountRepository         { return r.discounts }
func (r *TxReposStub) Payments() repo.PaymentRecordRepository     { return r.payments }
func (r *TxReposStub) WebhookEvents() repo.WebhookEventRepository { return r.webhookEvents }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) StampPaidAtIfEmpty(ctx context.Context, orderID int64, paidAt time.Time) error {
	args := m.Called(ctx, orderID, paidAt)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	args := m.Called(ctx, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderEventRepoMock struct{ mock.Mock }

func (m *OrderEventRepoMock) Append(ctx context.Context, ev model.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *OrderEventRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	evts, _ := args.Get(0).([]model.OrderEvent)
	return evts, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	args := m.Called(ctx, sessionID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveBySessionID(ctx context.Context, sessionID string) (model.Cart, error) {
	args := m.Called(ctx, sessionID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) ReplaceAll(ctx context.Context, cartID int64, items []model.CartItem) error {
	args := m.Called(ctx, cartID, items)
	return args.Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) Available(ctx context.Context, variantID int64) (int64, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type VariantRepoMock struct{ mock.Mock }

func (m *VariantRepoMock) FindByID(ctx context.Context, id int64) (model.ProductVariant, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

func (m *VariantRepoMock) FindByProductAndSize(ctx context.Context, productID int64, sizeLabel string) (model.ProductVariant, error) {
	args := m.Called(ctx, productID, sizeLabel)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) FindByCode(ctx context.Context, code string) (model.DiscountCode, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(model.DiscountCode)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) IncrementUsageIfAvailable(ctx context.Context, discountID int64) (bool, error) {
	args := m.Called(ctx, discountID)
	return args.Bool(0), args.Error(1)
}

func (m *DiscountRepoMock) DecrementUsage(ctx context.Context, discountID int64) error {
	args := m.Called(ctx, discountID)
	return args.Error(0)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, rec model.PaymentRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentRepoMock) FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentRecord, error) {
	args := m.Called(ctx, providerRef)
	rec, _ := args.Get(0).(model.PaymentRecord)
	return rec, args.Error(1)
}

func (m *PaymentRepoMock) FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentRecord, bool, error) {
	args := m.Called(ctx, orderID)
	rec, _ := args.Get(0).(model.PaymentRecord)
	return rec, args.Bool(1), args.Error(2)
}

func (m *PaymentRepoMock) UpdateStatusIf(ctx context.Context, recordID int64, from, to model.PaymentStatus) (bool, error) {
	args := m.Called(ctx, recordID, from, to)
	return args.Bool(0), args.Error(1)
}

type WebhookEventRepoMock struct{ mock.Mock }

func (m *WebhookEventRepoMock) Exists(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *WebhookEventRepoMock) Create(ctx context.Context, ev model.ProcessedWebhookEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
