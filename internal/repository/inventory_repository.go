package repository

import (
	"context"

	"inventory/internal/domain/model"
)

// 在庫数の変更だけを約束。変更は必ずここを通す。
type InventoryRepository interface {
	// stock = stock + delta を、結果が0以上になるときだけ1文で適用する。
	// low_stockも同じUPDATEの中で再計算する。
	// 適用後の商品を返す。商品なしはErrNotFound、在庫不足はErrInsufficientStock。
	AddStockChecked(ctx context.Context, productID int64, delta int64) (model.Product, error)
}
