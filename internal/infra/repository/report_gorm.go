package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportGormRepository struct {
	db *gorm.DB
}

func NewReportGormRepository(db *gorm.DB) *ReportGormRepository {
	return &ReportGormRepository{db: db}
}

func (r *ReportGormRepository) Counts(ctx context.Context) (repo.DashboardCounts, error) {
	var c repo.DashboardCounts

	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&c.Products).Error; err != nil {
		return repo.DashboardCounts{}, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Customer{}).Count(&c.Customers).Error; err != nil {
		return repo.DashboardCounts{}, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Supplier{}).Count(&c.Suppliers).Error; err != nil {
		return repo.DashboardCounts{}, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("low_stock = ?", true).
		Count(&c.LowStock).Error; err != nil {
		return repo.DashboardCounts{}, err
	}
	return c, nil
}

// COALESCEでNULL（売上0件）を0にする
type sumRow struct {
	Total decimal.Decimal
	Count int64
}

func (r *ReportGormRepository) SalesTotalBetween(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, int64, error) {
	var row sumRow
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("date >= ? AND date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}

func (r *ReportGormRepository) PurchasesTotalBetween(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, int64, error) {
	var row sumRow
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("date >= ? AND date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}

func (r *ReportGormRepository) ReceivablesTotal(ctx context.Context) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.WithContext(ctx).Model(&model.Customer{}).
		Select("COALESCE(SUM(balance), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *ReportGormRepository) SalesByDay(ctx context.Context, from time.Time, to time.Time) ([]repo.DailySales, error) {
	var rows []repo.DailySales
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("DATE_TRUNC('day', date) AS day, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Where("date >= ? AND date < ?", from, to).
		Group("DATE_TRUNC('day', date)").
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
