package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string `gorm:"type:varchar(32)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Address string `gorm:"type:varchar(255)" json:"address"`

	//未払い残高。仕入のbalance_remainingを積む。下限0。
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
