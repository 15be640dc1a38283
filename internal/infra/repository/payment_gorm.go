package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, rec model.PaymentRecord) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (r *PaymentGormRepository) FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentRecord, error) {
	var rec model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", providerRef).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentRecord{}, err
	}
	return rec, nil
}

// 注文のPENDINGレコード（intent再利用の判定に使う）
func (r *PaymentGormRepository) FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentRecord, bool, error) {
	var rec model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusPending).
		Order("id desc").
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentRecord{}, false, nil
	}
	if err != nil {
		return model.PaymentRecord{}, false, err
	}
	return rec, true, nil
}

// 条件付きステータス更新。終端レコードは動かない。
func (r *PaymentGormRepository) UpdateStatusIf(ctx context.Context, recordID int64, from, to model.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PaymentRecord{}).
		Where("id = ? AND status = ?", recordID, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type WebhookEventGormRepository struct {
	db *gorm.DB
}

func NewWebhookEventGormRepository(db *gorm.DB) *WebhookEventGormRepository {
	return &WebhookEventGormRepository{db: db}
}

func (r *WebhookEventGormRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *WebhookEventGormRepository) Create(ctx context.Context, ev model.ProcessedWebhookEvent) error {
	return r.db.WithContext(ctx).Create(&ev).Error
}
