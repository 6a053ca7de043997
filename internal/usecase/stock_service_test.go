package usecase_test

import (
	"context"
	"testing"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
)

// 在庫3の商品を4個売ろうとすると拒否され、在庫も台帳も変わらない。
func TestStockService_SaleRejectedWhenInsufficient(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 3, MinimumQuantity: 5})

	svc := usecase.NewStockService()

	_, _, err := svc.ApplyDelta(ctx, &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: p.ID,
		Delta:     -4,
		Type:      model.StockLogSale,
	})

	ise, ok := usecase.AsInsufficientStock(err)
	assert.True(t, ok)
	assert.Equal(t, p.ID, ise.ProductID)
	assert.Equal(t, "Widget", ise.ProductName)

	assert.Equal(t, int64(3), s.products[p.ID].Stock)
	assert.Empty(t, s.logs)
}

// 在庫3に5個仕入れると8になり、low_stockが解除される。
func TestStockService_PurchaseClearsLowStock(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 3, MinimumQuantity: 5})
	assert.True(t, s.products[p.ID].LowStock)

	svc := usecase.NewStockService()

	updated, log, err := svc.ApplyDelta(ctx, &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: p.ID,
		Delta:     5,
		Type:      model.StockLogPurchase,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(8), updated.Stock)
	assert.False(t, updated.LowStock)

	assert.Equal(t, model.StockLogPurchase, log.Type)
	assert.Equal(t, int64(5), log.Quantity)
	assert.Equal(t, int64(3), log.PreviousStock)
	assert.Equal(t, int64(8), log.NewStock)
	assert.Equal(t, int64(5), log.SignedQuantity())
}

// SALEは絶対値で記録され、SignedQuantityが符号を復元する。
func TestStockService_SaleLogsMagnitude(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 10, MinimumQuantity: 5})

	svc := usecase.NewStockService()

	_, log, err := svc.ApplyDelta(ctx, &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: p.ID,
		Delta:     -4,
		Type:      model.StockLogSale,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(4), log.Quantity)
	assert.Equal(t, int64(-4), log.SignedQuantity())
	assert.Equal(t, int64(10), log.PreviousStock)
	assert.Equal(t, int64(6), log.NewStock)
}

func TestStockService_RejectsWrongSign(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 10, MinimumQuantity: 5})

	svc := usecase.NewStockService()

	_, _, err := svc.ApplyDelta(ctx, &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: p.ID,
		Delta:     -1,
		Type:      model.StockLogPurchase,
	})
	assertErrContains(t, err, "purchase delta must be positive")

	_, _, err = svc.ApplyDelta(ctx, &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: p.ID,
		Delta:     1,
		Type:      model.StockLogSale,
	})
	assertErrContains(t, err, "sale delta must be negative")
}

func TestStockService_UnknownProduct(t *testing.T) {
	s := newFakeState()
	svc := usecase.NewStockService()

	_, _, err := svc.ApplyDelta(context.Background(), &fakeTxRepos{s: s}, usecase.StockDelta{
		ProductID: 42,
		Delta:     1,
		Type:      model.StockLogPurchase,
	})
	assertErrContains(t, err, "product not found")
}
