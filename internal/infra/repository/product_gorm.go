package repository

import (
	"context"
	"errors"
	"strings"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 検索/カテゴリ/ソート/ページング付きの一覧。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// q はnameとSKUを対象
	if strings.TrimSpace(q.Q) != "" {
		like := "%" + strings.TrimSpace(q.Q) + "%"
		tx = tx.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}

	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "name":
		tx = tx.Order("name asc").Order("id asc")
	case "stock_asc":
		tx = tx.Order("stock asc").Order("id asc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySKU(ctx context.Context, sku string) (model.Product, bool, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}
	return p, true, nil
}

// low_stockフラグで引く。thresholdがあれば stock < threshold で絞る。
func (r *ProductGormRepository) ListLowStock(ctx context.Context, threshold *int64) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if threshold != nil {
		tx = tx.Where("stock < ?", *threshold)
	} else {
		tx = tx.Where("low_stock = ?", true)
	}

	var products []model.Product
	if err := tx.Order("stock asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translateDuplicate(err)
	}
	return p, nil
}

// 在庫数はここでは触らない（在庫変更はInventoryRepository経由のみ）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"sku":              p.SKU,
		"name":             p.Name,
		"description":      p.Description,
		"unit":             p.Unit,
		"category_id":      p.CategoryID,
		"supplier_id":      p.SupplierID,
		"purchase_price":   p.PurchasePrice,
		"selling_price":    p.SellingPrice,
		"minimum_quantity": p.MinimumQuantity,
		"low_stock":        gorm.Expr("stock < ?", p.MinimumQuantity),
	})
	if res.Error != nil {
		return translateDuplicate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
