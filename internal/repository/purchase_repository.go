package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
)

type PurchaseListFilter struct {
	SupplierID *int64
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type PurchaseRepository interface {
	Create(ctx context.Context, p model.Purchase) (model.Purchase, error)
	FindByID(ctx context.Context, id int64) (model.Purchase, error)
	List(ctx context.Context, f PurchaseListFilter) ([]model.Purchase, int64, error)
	Update(ctx context.Context, p model.Purchase) error
	ReplaceItems(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error
	Delete(ctx context.Context, id int64) error
}
