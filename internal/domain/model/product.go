package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	//論理削除済みの行はSKUを塞がない（部分ユニークインデックス）
	SKU             string          `gorm:"type:varchar(64);not null;index:idx_products_sku,unique,where:deleted_at IS NULL" json:"sku"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Unit            string          `gorm:"type:varchar(32)" json:"unit"`
	CategoryID      *int64          `gorm:"index" json:"category_id"`
	SupplierID      *int64          `gorm:"index" json:"supplier_id"`
	PurchasePrice   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	SellingPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"selling_price"`
	Stock           int64           `gorm:"not null;default:0" json:"stock"`
	MinimumQuantity int64           `gorm:"not null;default:5" json:"minimum_quantity"`
	//在庫がminimum_quantityを下回っているか（更新は在庫変更時にまとめて行う）
	LowStock  bool           `gorm:"not null;default:false;index" json:"low_stock"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
