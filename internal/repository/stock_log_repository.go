package repository

import (
	"context"

	"inventory/internal/domain/model"
)

type StockLogFilter struct {
	ProductID *int64
	Type      *model.StockLogType
	Page      int
	Limit     int
}

// 在庫台帳。追記と参照のみ（更新・削除のメソッドは持たせない）。
type StockLogRepository interface {
	Create(ctx context.Context, log model.StockLog) (model.StockLog, error)
	List(ctx context.Context, f StockLogFilter) ([]model.StockLog, int64, error)
}
