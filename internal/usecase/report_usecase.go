package usecase

import (
	"context"
	"net/http"
	"time"

	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportUsecase struct {
	reportRepo repo.ReportRepository
	clock      Clock
}

// DI
func NewReportUsecase(reportRepo repo.ReportRepository, clock Clock) *ReportUsecase {
	return &ReportUsecase{reportRepo: reportRepo, clock: clock}
}

type DashboardOutput struct {
	ProductCount  int64 `json:"product_count"`
	CustomerCount int64 `json:"customer_count"`
	SupplierCount int64 `json:"supplier_count"`
	LowStockCount int64 `json:"low_stock_count"`

	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
	TodaySalesCount int64           `json:"today_sales_count"`

	MonthSalesTotal     decimal.Decimal `json:"month_sales_total"`
	MonthSalesCount     int64           `json:"month_sales_count"`
	MonthPurchasesTotal decimal.Decimal `json:"month_purchases_total"`
	MonthPurchasesCount int64           `json:"month_purchases_count"`

	ReceivablesTotal decimal.Decimal `json:"receivables_total"`
}

// ダッシュボード用の集計。今日と当月はサーバーのローカル時刻基準。
func (u *ReportUsecase) Dashboard(ctx context.Context) (DashboardOutput, error) {
	now := u.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	counts, err := u.reportRepo.Counts(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	todayTotal, todayCount, err := u.reportRepo.SalesTotalBetween(ctx, dayStart, now)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	monthTotal, monthCount, err := u.reportRepo.SalesTotalBetween(ctx, monthStart, now)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	purchasesTotal, purchasesCount, err := u.reportRepo.PurchasesTotalBetween(ctx, monthStart, now)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	receivables, err := u.reportRepo.ReceivablesTotal(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return DashboardOutput{
		ProductCount:        counts.Products,
		CustomerCount:       counts.Customers,
		SupplierCount:       counts.Suppliers,
		LowStockCount:       counts.LowStock,
		TodaySalesTotal:     todayTotal,
		TodaySalesCount:     todayCount,
		MonthSalesTotal:     monthTotal,
		MonthSalesCount:     monthCount,
		MonthPurchasesTotal: purchasesTotal,
		MonthPurchasesCount: purchasesCount,
		ReceivablesTotal:    receivables,
	}, nil
}

type SalesReportInput struct {
	From time.Time
	To   time.Time
}

type SalesReportOutput struct {
	From  time.Time         `json:"from"`
	To    time.Time         `json:"to"`
	Days  []repo.DailySales `json:"days"`
	Total decimal.Decimal   `json:"total"`
	Count int64             `json:"count"`
}

// 期間の日別売上レポート。期間は最大1年まで。
func (u *ReportUsecase) SalesReport(ctx context.Context, in SalesReportInput) (SalesReportOutput, error) {
	if in.From.IsZero() || in.To.IsZero() {
		return SalesReportOutput{}, NewHTTPError(http.StatusBadRequest, "from and to required")
	}
	if in.To.Before(in.From) {
		return SalesReportOutput{}, NewHTTPError(http.StatusBadRequest, "to must not be before from")
	}
	if in.To.Sub(in.From) > 366*24*time.Hour {
		return SalesReportOutput{}, NewHTTPError(http.StatusBadRequest, "range too wide")
	}

	days, err := u.reportRepo.SalesByDay(ctx, in.From, in.To)
	if err != nil {
		return SalesReportOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	total := decimal.Zero
	var count int64
	for _, d := range days {
		total = total.Add(d.Total)
		count += d.Count
	}

	return SalesReportOutput{
		From:  in.From,
		To:    in.To,
		Days:  days,
		Total: total,
		Count: count,
	}, nil
}
