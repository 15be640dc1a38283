package repository

import "context"

// 在庫台帳。減算は条件付きUPDATEだけ（ロック無しで同時実行に耐える）。
type InventoryRepository interface {
	// バリアントの現在在庫
	Available(ctx context.Context, variantID int64) (int64, error)

	// 在庫が足りるときだけ減算（UPDATE ... WHERE stock >= qty）
	DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル・決済失敗の補償）
	IncreaseStock(ctx context.Context, variantID int64, qty int64) error
}
