package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type OrderEventGormRepository struct {
	db *gorm.DB
}

func NewOrderEventGormRepository(db *gorm.DB) *OrderEventGormRepository {
	return &OrderEventGormRepository{db: db}
}

// 追記のみ。UPDATE/DELETEは実装しない。
func (r *OrderEventGormRepository) Append(ctx context.Context, ev model.OrderEvent) error {
	return r.db.WithContext(ctx).Create(&ev).Error
}

func (r *OrderEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	var events []model.OrderEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&events).Error; err != nil {
		return []model.OrderEvent{}, err
	}
	return events, nil
}
