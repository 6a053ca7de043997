package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
)

type PurchaseUsecase struct {
	tx    repo.TransactionManager
	stock *StockService
	idGen IDGenerator
	clock Clock
}

// DI
func NewPurchaseUsecase(
	tx repo.TransactionManager,
	stock *StockService,
	idGen IDGenerator,
	clock Clock,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		tx:    tx,
		stock: stock,
		idGen: idGen,
		clock: clock,
	}
}

type PurchaseItemInput struct {
	ProductID int64
	Quantity  int64
	UnitCost  decimal.Decimal
}

type PurchaseInput struct {
	SupplierID    int64
	InvoiceNumber string
	Date          time.Time //ゼロ値なら現在時刻
	Items         []PurchaseItemInput
	AmountPaid    decimal.Decimal
}

func (in PurchaseInput) validate() error {
	if in.SupplierID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid supplier id")
	}
	if len(in.Items) == 0 {
		return NewHTTPError(http.StatusBadRequest, "items required")
	}
	if len(in.Items) > 100 {
		return NewHTTPError(http.StatusBadRequest, "too many items")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if it.Quantity <= 0 {
			return NewHTTPError(http.StatusBadRequest, "quantity must be positive")
		}
		if it.UnitCost.IsNegative() {
			return NewHTTPError(http.StatusBadRequest, "unit_cost must be >= 0")
		}
	}
	if in.AmountPaid.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "amount_paid must be >= 0")
	}
	return nil
}

func (u *PurchaseUsecase) buildPurchaseItems(ctx context.Context, r repo.TxRepos, inputs []PurchaseItemInput) ([]model.PurchaseItem, decimal.Decimal, error) {
	items := make([]model.PurchaseItem, 0, len(inputs))
	total := decimal.Zero

	for _, it := range inputs {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			return nil, decimal.Zero, NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %d not found", it.ProductID))
		}
		if err != nil {
			return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cost := it.UnitCost.Mul(decimal.NewFromInt(it.Quantity))
		items = append(items, model.PurchaseItem{
			ProductID:   it.ProductID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitCost:    it.UnitCost,
			TotalCost:   cost,
		})
		total = total.Add(cost)
	}

	return items, total, nil
}

func balanceRemaining(total decimal.Decimal, paid decimal.Decimal) decimal.Decimal {
	rem := total.Sub(paid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

func (u *PurchaseUsecase) CreatePurchase(ctx context.Context, in PurchaseInput) (model.Purchase, error) {
	if err := in.validate(); err != nil {
		return model.Purchase{}, err
	}

	var out model.Purchase

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Suppliers().FindByID(ctx, in.SupplierID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "supplier not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, total, err := u.buildPurchaseItems(ctx, r, in.Items)
		if err != nil {
			return err
		}

		invoice := strings.TrimSpace(in.InvoiceNumber)
		if invoice == "" {
			invoice = newInvoiceNumber("PUR", u.idGen)
		}

		date := in.Date
		if date.IsZero() {
			date = u.clock.Now()
		}

		remaining := balanceRemaining(total, in.AmountPaid)

		created, err := r.Purchases().Create(ctx, model.Purchase{
			InvoiceNumber:    invoice,
			SupplierID:       in.SupplierID,
			Date:             date,
			Items:            items,
			TotalAmount:      total,
			AmountPaid:       in.AmountPaid,
			BalanceRemaining: remaining,
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "invoice number already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//明細ごとに在庫を増やして台帳へ
		for _, it := range created.Items {
			if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
				ProductID:   it.ProductID,
				Delta:       it.Quantity,
				Type:        model.StockLogPurchase,
				ReferenceID: &created.ID,
			}); err != nil {
				return err
			}
		}

		//未払い分は仕入先残高へ
		if remaining.IsPositive() {
			if err := r.Suppliers().AddBalance(ctx, in.SupplierID, remaining); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = created
		return nil
	})

	if err != nil {
		return model.Purchase{}, err
	}
	return out, nil
}

// UpdatePurchaseは旧明細で増えた在庫を戻してから新明細を適用する。
// 入荷分が既に売れていて戻せない場合はInsufficientStockで失敗し、何も変わらない。
func (u *PurchaseUsecase) UpdatePurchase(ctx context.Context, purchaseID int64, in PurchaseInput) (model.Purchase, error) {
	if purchaseID <= 0 {
		return model.Purchase{}, NewHTTPError(http.StatusBadRequest, "invalid purchase id")
	}
	if err := in.validate(); err != nil {
		return model.Purchase{}, err
	}

	var out model.Purchase

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		old, err := r.Purchases().FindByID(ctx, purchaseID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "purchase not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if _, err := r.Suppliers().FindByID(ctx, in.SupplierID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "supplier not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.reversePurchaseItems(ctx, r, old, fmt.Sprintf("reversal: purchase %s updated", old.InvoiceNumber)); err != nil {
			return err
		}

		items, total, err := u.buildPurchaseItems(ctx, r, in.Items)
		if err != nil {
			return err
		}

		date := in.Date
		if date.IsZero() {
			date = old.Date
		}

		remaining := balanceRemaining(total, in.AmountPaid)

		updated := model.Purchase{
			ID:               old.ID,
			InvoiceNumber:    old.InvoiceNumber,
			SupplierID:       in.SupplierID,
			Date:             date,
			TotalAmount:      total,
			AmountPaid:       in.AmountPaid,
			BalanceRemaining: remaining,
		}

		if err := r.Purchases().Update(ctx, updated); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Purchases().ReplaceItems(ctx, old.ID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
				ProductID:   it.ProductID,
				Delta:       it.Quantity,
				Type:        model.StockLogPurchase,
				ReferenceID: &old.ID,
			}); err != nil {
				return err
			}
		}

		//仕入先残高の付け替え
		if err := u.applySupplierBalanceDiff(ctx, r, old.SupplierID, old.BalanceRemaining, in.SupplierID, remaining); err != nil {
			return err
		}

		final, err := r.Purchases().FindByID(ctx, old.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = final
		return nil
	})

	if err != nil {
		return model.Purchase{}, err
	}
	return out, nil
}

func (u *PurchaseUsecase) DeletePurchase(ctx context.Context, purchaseID int64) error {
	if purchaseID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid purchase id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		old, err := r.Purchases().FindByID(ctx, purchaseID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "purchase not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.reversePurchaseItems(ctx, r, old, fmt.Sprintf("reversal: purchase %s deleted", old.InvoiceNumber)); err != nil {
			return err
		}

		if old.BalanceRemaining.IsPositive() {
			if err := wrapSupplierBalanceErr(r.Suppliers().AddBalance(ctx, old.SupplierID, old.BalanceRemaining.Neg())); err != nil {
				return err
			}
		}

		if err := r.Purchases().Delete(ctx, purchaseID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 旧明細で増えた数量をADJUSTMENTで差し戻す
func (u *PurchaseUsecase) reversePurchaseItems(ctx context.Context, r repo.TxRepos, p model.Purchase, reason string) error {
	for _, it := range p.Items {
		if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
			ProductID:   it.ProductID,
			Delta:       -it.Quantity,
			Type:        model.StockLogAdjustment,
			Reason:      reason,
			ReferenceID: &p.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (u *PurchaseUsecase) applySupplierBalanceDiff(
	ctx context.Context,
	r repo.TxRepos,
	oldSupplierID int64,
	oldRemaining decimal.Decimal,
	newSupplierID int64,
	newRemaining decimal.Decimal,
) error {
	if oldSupplierID == newSupplierID {
		diff := newRemaining.Sub(oldRemaining)
		if diff.IsZero() {
			return nil
		}
		return wrapSupplierBalanceErr(r.Suppliers().AddBalance(ctx, newSupplierID, diff))
	}

	//仕入先が変わった場合、旧仕入先は削除済みのこともある
	if oldRemaining.IsPositive() {
		if err := wrapSupplierBalanceErr(r.Suppliers().AddBalance(ctx, oldSupplierID, oldRemaining.Neg())); err != nil {
			return err
		}
	}
	if newRemaining.IsPositive() {
		if err := wrapSupplierBalanceErr(r.Suppliers().AddBalance(ctx, newSupplierID, newRemaining)); err != nil {
			return err
		}
	}
	return nil
}

func wrapSupplierBalanceErr(err error) error {
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "supplier not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type ListPurchasesInput struct {
	SupplierID *int64
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type PurchaseListOutput struct {
	Items []model.Purchase `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *PurchaseUsecase) ListPurchases(ctx context.Context, in ListPurchasesInput) (PurchaseListOutput, error) {
	if in.Page < 1 {
		return PurchaseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return PurchaseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out PurchaseListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		purchases, total, err := r.Purchases().List(ctx, repo.PurchaseListFilter{
			SupplierID: in.SupplierID,
			From:       in.From,
			To:         in.To,
			Page:       in.Page,
			Limit:      in.Limit,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = PurchaseListOutput{Items: purchases, Total: total, Page: in.Page, Limit: in.Limit}
		return nil
	})

	if err != nil {
		return PurchaseListOutput{}, err
	}
	return out, nil
}

func (u *PurchaseUsecase) GetPurchase(ctx context.Context, purchaseID int64) (model.Purchase, error) {
	if purchaseID <= 0 {
		return model.Purchase{}, NewHTTPError(http.StatusBadRequest, "invalid purchase id")
	}

	var out model.Purchase

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Purchases().FindByID(ctx, purchaseID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "purchase not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = p
		return nil
	})

	if err != nil {
		return model.Purchase{}, err
	}
	return out, nil
}
