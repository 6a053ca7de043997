package repository

import (
	"context"

	"inventory/internal/domain/model"

	"github.com/shopspring/decimal"
)

type SupplierRepository interface {
	List(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id int64) (model.Supplier, error)
	Create(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Update(ctx context.Context, s model.Supplier) error
	Delete(ctx context.Context, id int64) error

	// balance = GREATEST(balance + delta, 0) を1文で適用する
	AddBalance(ctx context.Context, id int64, delta decimal.Decimal) error
}
