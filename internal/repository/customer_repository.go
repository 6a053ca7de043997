package repository

import (
	"context"

	"inventory/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CustomerRepository interface {
	List(ctx context.Context) ([]model.Customer, error)
	FindByID(ctx context.Context, id int64) (model.Customer, error)
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
	Delete(ctx context.Context, id int64) error

	// balance = GREATEST(balance + delta, 0) を1文で適用する
	AddBalance(ctx context.Context, id int64, delta decimal.Decimal) error
}
