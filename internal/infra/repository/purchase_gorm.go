package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type PurchaseGormRepository struct {
	db *gorm.DB
}

func NewPurchaseGormRepository(db *gorm.DB) *PurchaseGormRepository {
	return &PurchaseGormRepository{db: db}
}

func (r *PurchaseGormRepository) Create(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Purchase{}, translateDuplicate(err)
	}
	return p, nil
}

func (r *PurchaseGormRepository) FindByID(ctx context.Context, id int64) (model.Purchase, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).Preload("Items").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Purchase{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

func (r *PurchaseGormRepository) List(ctx context.Context, f repo.PurchaseListFilter) ([]model.Purchase, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{})

	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Purchase{}, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var purchases []model.Purchase
	err := q.Preload("Items").
		Order("id desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&purchases).Error
	if err != nil {
		return []model.Purchase{}, 0, err
	}
	return purchases, total, nil
}

func (r *PurchaseGormRepository) Update(ctx context.Context, p model.Purchase) error {
	res := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"supplier_id":       p.SupplierID,
		"date":              p.Date,
		"total_amount":      p.TotalAmount,
		"amount_paid":       p.AmountPaid,
		"balance_remaining": p.BalanceRemaining,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PurchaseGormRepository) ReplaceItems(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("purchase_id = ?", purchaseID).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].PurchaseID = purchaseID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *PurchaseGormRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("purchase_id = ?", id).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Purchase{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
