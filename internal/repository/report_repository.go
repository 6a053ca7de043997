package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ダッシュボード用の件数まとめ
type DashboardCounts struct {
	Products  int64
	Customers int64
	Suppliers int64
	LowStock  int64
}

// 日別売上
type DailySales struct {
	Day   time.Time       `json:"day"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// 集計系の読み取り専用クエリ。
type ReportRepository interface {
	Counts(ctx context.Context) (DashboardCounts, error)
	SalesTotalBetween(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, int64, error)
	PurchasesTotalBetween(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, int64, error)

	//全顧客の売掛残高合計
	ReceivablesTotal(ctx context.Context) (decimal.Decimal, error)
	SalesByDay(ctx context.Context, from time.Time, to time.Time) ([]DailySales, error)
}
