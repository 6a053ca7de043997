package repository

import (
	"context"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type StockLogGormRepository struct {
	db *gorm.DB
}

func NewStockLogGormRepository(db *gorm.DB) *StockLogGormRepository {
	return &StockLogGormRepository{db: db}
}

func (r *StockLogGormRepository) Create(ctx context.Context, log model.StockLog) (model.StockLog, error) {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return model.StockLog{}, err
	}
	return log, nil
}

func (r *StockLogGormRepository) List(ctx context.Context, f repo.StockLogFilter) ([]model.StockLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLog{})

	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.StockLog{}, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []model.StockLog
	//新しい順
	err := q.Order("id desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error
	if err != nil {
		return []model.StockLog{}, 0, err
	}
	return logs, total, nil
}
