package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// stock = stock + delta を、結果が0以上になるときだけ適用する。
// SETの右辺は全て変更前の行を参照するので、low_stockの再計算も同じ1文で済む。
// UPDATEが行ロックを取るため、同時実行の売上が両方通ることはない。
func (r *InventoryGormRepository) AddStockChecked(ctx context.Context, productID int64, delta int64) (model.Product, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Updates(map[string]interface{}{
			"stock":     gorm.Expr("stock + ?", delta),
			"low_stock": gorm.Expr("stock + ? < minimum_quantity", delta),
		})
	if res.Error != nil {
		return model.Product{}, res.Error
	}

	if res.RowsAffected == 0 {
		//商品なしか在庫不足かを区別する
		var p model.Product
		err := r.db.WithContext(ctx).First(&p, productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Product{}, repo.ErrNotFound
		}
		if err != nil {
			return model.Product{}, err
		}
		return model.Product{}, repo.ErrInsufficientStock
	}

	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}
