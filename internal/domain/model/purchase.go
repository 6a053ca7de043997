package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceNumber string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	SupplierID    int64          `gorm:"not null;index" json:"supplier_id"`
	Date          time.Time      `gorm:"not null;index" json:"date"`
	Items         []PurchaseItem `gorm:"foreignKey:PurchaseID" json:"items"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	AmountPaid  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_paid"`

	//total_amount - amount_paid（マイナスにはしない）
	BalanceRemaining decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance_remaining"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type PurchaseItem struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID int64 `gorm:"not null;index" json:"purchase_id"`
	ProductID  int64 `gorm:"not null;index" json:"product_id"`

	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_cost"`
	TotalCost   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_cost"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
