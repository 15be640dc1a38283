package repository

import (
	"context"

	"app/internal/domain/model"
)

type DiscountRepository interface {
	// 照合はcase-insensitive（保存は大文字）
	FindByCode(ctx context.Context, code string) (model.DiscountCode, error)

	// 上限未満のときだけtimes_usedを+1する
	// （UPDATE ... WHERE usage_limit = 0 OR times_used < usage_limit）。
	// 行が動かなければfalse＝使い切り。
	IncrementUsageIfAvailable(ctx context.Context, discountID int64) (bool, error)

	// キャンセル補償（0未満にはしない）
	DecrementUsage(ctx context.Context, discountID int64) error
}
