package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

type Sale struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceNumber string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	CustomerID    *int64     `gorm:"index" json:"customer_id"`
	SellerID      int64      `gorm:"not null;index" json:"seller_id"`
	Date          time.Time  `gorm:"not null;index" json:"date"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`

	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax"`
	Discount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	AmountPaid    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_paid"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Outstandingは未払い分（マイナスにはしない）。
func (s Sale) Outstanding() decimal.Decimal {
	out := s.TotalAmount.Sub(s.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

type SaleItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID    int64 `gorm:"not null;index" json:"sale_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//販売時点のスナップショット
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
