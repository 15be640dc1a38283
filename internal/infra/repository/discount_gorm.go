package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type DiscountGormRepository struct {
	db *gorm.DB
}

func NewDiscountGormRepository(db *gorm.DB) *DiscountGormRepository {
	return &DiscountGormRepository{db: db}
}

// 照合はcase-insensitive。保存形式（大文字）に揃えてから引く。
func (r *DiscountGormRepository) FindByCode(ctx context.Context, code string) (model.DiscountCode, error) {
	var d model.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", model.NormalizeDiscountCode(code)).
		First(&d).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DiscountCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DiscountCode{}, err
	}

	// kindはここ（データ境界）で一度だけ検証する
	kind, kerr := model.ParseDiscountKind(string(d.Kind))
	if kerr != nil {
		return model.DiscountCode{}, kerr
	}
	d.Kind = kind

	return d, nil
}

// 上限未満のときだけ使用回数を+1する。read-then-writeはしない。
func (r *DiscountGormRepository) IncrementUsageIfAvailable(ctx context.Context, discountID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.DiscountCode{}).
		Where("id = ? AND (usage_limit = 0 OR times_used < usage_limit)", discountID).
		Update("times_used", gorm.Expr("times_used + 1"))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// キャンセル補償。0未満には下げない。
func (r *DiscountGormRepository) DecrementUsage(ctx context.Context, discountID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.DiscountCode{}).
		Where("id = ? AND times_used > 0", discountID).
		Update("times_used", gorm.Expr("times_used - 1"))

	return res.Error
}
