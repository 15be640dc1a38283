package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// 条件付きステータス更新（UPDATE ... WHERE id = ? AND status = from）。
	// 行が動かなければfalse（並行して別の遷移が勝った）。
	UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)

	// paid_atがNULLのときだけ刻印する（再配送で上書きしない）
	StampPaidAtIfEmpty(ctx context.Context, orderID int64, paidAt time.Time) error

	// 同じキーなら同じ注文を返す（リトライの冪等性）
	FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}

// 追記専用。更新・削除は約束しない。
type OrderEventRepository interface {
	Append(ctx context.Context, ev model.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error)
}
