package model

import "time"

// 在庫を動かした操作の種類
type StockLogType string

const (
	StockLogPurchase   StockLogType = "PURCHASE"
	StockLogSale       StockLogType = "SALE"
	StockLogAdjustment StockLogType = "ADJUSTMENT"
)

// 在庫台帳。数量を動かした操作を1件ずつ追記する。作成後は更新も削除もしない。
type StockLog struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64        `gorm:"not null;index" json:"product_id"`
	Type      StockLogType `gorm:"type:varchar(20);not null;index" json:"type"`

	//PURCHASE/SALEは数量の絶対値、ADJUSTMENTは符号付きの差分
	Quantity      int64 `gorm:"not null" json:"quantity"`
	PreviousStock int64 `gorm:"not null" json:"previous_stock"`
	NewStock      int64 `gorm:"not null" json:"new_stock"`

	//元になった売上/仕入のID（手動調整のときはnull）
	ReferenceID *int64    `gorm:"index" json:"reference_id"`
	Reason      string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// SignedQuantityはtypeを加味した符号付きの増減量を返す。
// new_stock - previous_stock と常に一致する。
func (l StockLog) SignedQuantity() int64 {
	switch l.Type {
	case StockLogSale:
		return -l.Quantity
	default:
		return l.Quantity
	}
}
