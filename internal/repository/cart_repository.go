package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActiveBySessionID(ctx context.Context, sessionID string) (model.Cart, error)
	FindActiveBySessionID(ctx context.Context, sessionID string) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// カートは毎回丸ごと置き換える（明細の部分更新はしない）
	ReplaceAll(ctx context.Context, cartID int64, items []model.CartItem) error
}
