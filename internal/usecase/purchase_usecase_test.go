package usecase_test

import (
	"context"
	"testing"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newPurchaseUsecase(s *fakeState) *usecase.PurchaseUsecase {
	return usecase.NewPurchaseUsecase(
		&fakeTxManager{s: s},
		usecase.NewStockService(),
		&seqIDGen{},
		&fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	)
}

// 仕入で在庫が増え、未払い分が仕入先残高に積まれる。
func TestPurchaseUsecase_CreatePurchase(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 3, MinimumQuantity: 5})
	sp := s.addSupplier(model.Supplier{Name: "Acme", Balance: decimal.Zero})

	uc := newPurchaseUsecase(s)

	purchase, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: sp.ID,
		Items: []usecase.PurchaseItemInput{
			{ProductID: p.ID, Quantity: 5, UnitCost: dec(10)},
		},
		AmountPaid: dec(20),
	})
	assert.NoError(t, err)
	assert.True(t, purchase.TotalAmount.Equal(dec(50)))
	assert.True(t, purchase.BalanceRemaining.Equal(dec(30)))

	assert.Equal(t, int64(8), s.products[p.ID].Stock)
	assert.False(t, s.products[p.ID].LowStock)
	assert.True(t, s.suppliers[sp.ID].Balance.Equal(dec(30)))

	assert.Len(t, s.logs, 1)
	assert.Equal(t, model.StockLogPurchase, s.logs[0].Type)
	assert.Equal(t, int64(5), s.logs[0].Quantity)
	assert.Equal(t, int64(3), s.logs[0].PreviousStock)
	assert.Equal(t, int64(8), s.logs[0].NewStock)
}

func TestPurchaseUsecase_CreatePurchase_UnknownSupplier(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 3, MinimumQuantity: 5})

	uc := newPurchaseUsecase(s)

	_, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: 99,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec(10)}},
	})
	assertErrContains(t, err, "supplier not found")
	assert.Equal(t, int64(3), s.products[p.ID].Stock)
}

// 過払いでもbalance_remainingは0止まり。
func TestPurchaseUsecase_CreatePurchase_OverpaidFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 3, MinimumQuantity: 5})
	sp := s.addSupplier(model.Supplier{Name: "Acme", Balance: decimal.Zero})

	uc := newPurchaseUsecase(s)

	purchase, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: sp.ID,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec(10)}},
		AmountPaid: dec(100),
	})
	assert.NoError(t, err)
	assert.True(t, purchase.BalanceRemaining.IsZero())
	assert.True(t, s.suppliers[sp.ID].Balance.IsZero())
}

// 仕入先の付け替え時、旧仕入先が削除済みなら404で失敗し何も変わらない。
func TestPurchaseUsecase_UpdatePurchase_OldSupplierDeleted(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 0, MinimumQuantity: 2})
	spA := s.addSupplier(model.Supplier{Name: "Acme", Balance: decimal.Zero})
	spB := s.addSupplier(model.Supplier{Name: "Beta", Balance: decimal.Zero})

	uc := newPurchaseUsecase(s)

	purchase, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: spA.ID,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 5, UnitCost: dec(10)}},
		AmountPaid: dec(20),
	})
	assert.NoError(t, err)

	delete(s.suppliers, spA.ID)

	_, err = uc.UpdatePurchase(ctx, purchase.ID, usecase.PurchaseInput{
		SupplierID: spB.ID,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 5, UnitCost: dec(10)}},
		AmountPaid: dec(20),
	})
	httpErr, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, httpErr.Status)
	assertErrContains(t, err, "supplier not found")

	//巻き戻し：仕入は旧仕入先のまま、新仕入先に残高は付かない
	assert.Equal(t, spA.ID, s.purchases[purchase.ID].SupplierID)
	assert.True(t, s.suppliers[spB.ID].Balance.IsZero())
}

// 仕入れた分が既に売れていると、削除の在庫戻しは在庫不足で失敗し何も変わらない。
func TestPurchaseUsecase_DeletePurchase_BlockedWhenStockSold(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 0, MinimumQuantity: 2})
	sp := s.addSupplier(model.Supplier{Name: "Acme", Balance: decimal.Zero})

	uc := newPurchaseUsecase(s)

	purchase, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: sp.ID,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 5, UnitCost: dec(10)}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), s.products[p.ID].Stock)

	//在庫が他で捌けた想定
	s.products[p.ID] = func(pr model.Product) model.Product { pr.Stock = 2; return pr }(s.products[p.ID])

	err = uc.DeletePurchase(ctx, purchase.ID)
	_, ok := usecase.AsInsufficientStock(err)
	assert.True(t, ok)

	//仕入も残高も残ったまま
	assert.Len(t, s.purchases, 1)
	assert.Equal(t, int64(2), s.products[p.ID].Stock)
	assert.True(t, s.suppliers[sp.ID].Balance.Equal(dec(50)))
}

func TestPurchaseUsecase_DeletePurchase_RestoresBalance(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	p := s.addProduct(model.Product{Name: "Widget", SKU: "W-1", Stock: 0, MinimumQuantity: 2})
	sp := s.addSupplier(model.Supplier{Name: "Acme", Balance: decimal.Zero})

	uc := newPurchaseUsecase(s)

	purchase, err := uc.CreatePurchase(ctx, usecase.PurchaseInput{
		SupplierID: sp.ID,
		Items:      []usecase.PurchaseItemInput{{ProductID: p.ID, Quantity: 5, UnitCost: dec(10)}},
		AmountPaid: dec(20),
	})
	assert.NoError(t, err)
	assert.True(t, s.suppliers[sp.ID].Balance.Equal(dec(30)))

	err = uc.DeletePurchase(ctx, purchase.ID)
	assert.NoError(t, err)

	assert.Equal(t, int64(0), s.products[p.ID].Stock)
	assert.True(t, s.suppliers[sp.ID].Balance.IsZero())
	assert.Empty(t, s.purchases)

	//台帳にはPURCHASEと戻しADJUSTMENTが残る
	assert.Len(t, s.logs, 2)
	assert.Equal(t, model.StockLogAdjustment, s.logs[1].Type)
}
