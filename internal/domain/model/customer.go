package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string `gorm:"type:varchar(32);not null" json:"phone"`
	Address string `gorm:"type:varchar(255)" json:"address"`

	//売掛残高。売上の未払い分を積む。下限0。
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
