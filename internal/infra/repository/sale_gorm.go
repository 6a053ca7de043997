package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type SaleGormRepository struct {
	db *gorm.DB
}

func NewSaleGormRepository(db *gorm.DB) *SaleGormRepository {
	return &SaleGormRepository{db: db}
}

// Items込みで保存する（gormのassociationで一括）
func (r *SaleGormRepository) Create(ctx context.Context, s model.Sale) (model.Sale, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Sale{}, translateDuplicate(err)
	}
	return s, nil
}

func (r *SaleGormRepository) FindByID(ctx context.Context, id int64) (model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sale{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sale{}, err
	}
	return s, nil
}

func (r *SaleGormRepository) List(ctx context.Context, f repo.SaleListFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Sale{}, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var sales []model.Sale
	err := q.Preload("Items").
		Order("id desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&sales).Error
	if err != nil {
		return []model.Sale{}, 0, err
	}
	return sales, total, nil
}

// ヘッダ項目のみ更新
func (r *SaleGormRepository) Update(ctx context.Context, s model.Sale) error {
	res := r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"customer_id":    s.CustomerID,
		"date":           s.Date,
		"subtotal":       s.Subtotal,
		"tax":            s.Tax,
		"discount":       s.Discount,
		"total_amount":   s.TotalAmount,
		"amount_paid":    s.AmountPaid,
		"payment_method": s.PaymentMethod,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を全部消して入れ直す
func (r *SaleGormRepository) ReplaceItems(ctx context.Context, saleID int64, items []model.SaleItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].SaleID = saleID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *SaleGormRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Sale{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
