package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 商品の読み取りだけを約束（カタログ管理は別システム）。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

// バリアント（商品×サイズ）の解決。
type VariantRepository interface {
	FindByID(ctx context.Context, id int64) (model.ProductVariant, error)
	// size_labelが空なら「サイズ無し」バリアント
	FindByProductAndSize(ctx context.Context, productID int64, sizeLabel string) (model.ProductVariant, error)
}
