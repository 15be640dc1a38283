package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
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

func (r *txReposGorm) Orders() repo.OrderRepository              { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository      { return r.orderItems }
func (r *txReposGorm) OrderEvents() repo.OrderEventRepository    { return r.orderEvents }
func (r *txReposGorm) Carts() repo.CartRepository                { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository        { return r.cartItems }
func (r *txReposGorm) Inventory() repo.InventoryRepository       { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository          { return r.products }
func (r *txReposGorm) Variants() repo.VariantRepository          { return r.variants }
func (r *txReposGorm) Discounts() repo.DiscountRepository        { return r.discounts }
func (r *txReposGorm) Payments() repo.PaymentRecordRepository    { return r.payments }
func (r *txReposGorm) WebhookEvents() repo.WebhookEventRepository { return r.webhookEvents }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			orderEvents:   NewOrderEventGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			cartItems:     NewCartItemGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			products:      NewProductGormRepository(tx),
			variants:      NewVariantGormRepository(tx),
			discounts:     NewDiscountGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			webhookEvents: NewWebhookEventGormRepository(tx),
		}
		return fn(r)
	})
}
