package repository

import (
	"context"

	"inventory/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindBySKU(ctx context.Context, sku string) (model.Product, bool, error)

	//low_stock=trueの商品。thresholdを渡すと stock < threshold で絞る。
	ListLowStock(ctx context.Context, threshold *int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
