package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
)

type SaleListFilter struct {
	CustomerID *int64
	SellerID   *int64
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type SaleRepository interface {
	// Itemsも一緒に保存する
	Create(ctx context.Context, s model.Sale) (model.Sale, error)

	// Items込みで返す
	FindByID(ctx context.Context, id int64) (model.Sale, error)
	List(ctx context.Context, f SaleListFilter) ([]model.Sale, int64, error)

	//ヘッダ項目のみ更新。明細はReplaceItemsで差し替える。
	Update(ctx context.Context, s model.Sale) error
	ReplaceItems(ctx context.Context, saleID int64, items []model.SaleItem) error

	//明細ごと削除
	Delete(ctx context.Context, id int64) error
}
