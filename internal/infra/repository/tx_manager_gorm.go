package repository

import (
	"context"

	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	inventory  repo.InventoryRepository
	stockLogs  repo.StockLogRepository
	sales      repo.SaleRepository
	purchases  repo.PurchaseRepository
	customers  repo.CustomerRepository
	suppliers  repo.SupplierRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposGorm) Products() repo.ProductRepository    { return r.products }
func (r *txReposGorm) Categories() repo.CategoryRepository { return r.categories }
func (r *txReposGorm) Inventory() repo.InventoryRepository { return r.inventory }
func (r *txReposGorm) StockLogs() repo.StockLogRepository  { return r.stockLogs }
func (r *txReposGorm) Sales() repo.SaleRepository          { return r.sales }
func (r *txReposGorm) Purchases() repo.PurchaseRepository  { return r.purchases }
func (r *txReposGorm) Customers() repo.CustomerRepository  { return r.customers }
func (r *txReposGorm) Suppliers() repo.SupplierRepository  { return r.suppliers }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:   NewProductGormRepository(tx),
			categories: NewCategoryGormRepository(tx),
			inventory:  NewInventoryGormRepository(tx),
			stockLogs:  NewStockLogGormRepository(tx),
			sales:      NewSaleGormRepository(tx),
			purchases:  NewPurchaseGormRepository(tx),
			customers:  NewCustomerGormRepository(tx),
			suppliers:  NewSupplierGormRepository(tx),
			auditLogs:  NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
