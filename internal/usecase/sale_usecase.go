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

type SaleUsecase struct {
	tx    repo.TransactionManager
	stock *StockService
	idGen IDGenerator
	clock Clock
}

// DI
func NewSaleUsecase(
	tx repo.TransactionManager,
	stock *StockService,
	idGen IDGenerator,
	clock Clock,
) *SaleUsecase {
	return &SaleUsecase{
		tx:    tx,
		stock: stock,
		idGen: idGen,
		clock: clock,
	}
}

type SaleItemInput struct {
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
}

type SaleInput struct {
	CustomerID    *int64
	InvoiceNumber string
	Date          time.Time //ゼロ値なら現在時刻
	Items         []SaleItemInput
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentMethod string //空ならcash
}

func (in SaleInput) validate() error {
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
		if it.Price.IsNegative() {
			return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
	}
	if in.Tax.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "tax must be >= 0")
	}
	if in.Discount.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "discount must be >= 0")
	}
	if in.AmountPaid.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "amount_paid must be >= 0")
	}
	switch in.PaymentMethod {
	case "", string(model.PaymentCash), string(model.PaymentCard), string(model.PaymentMobile):
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	return nil
}

func (in SaleInput) paymentMethod() model.PaymentMethod {
	if in.PaymentMethod == "" {
		return model.PaymentCash
	}
	return model.PaymentMethod(in.PaymentMethod)
}

// buildSaleItemsは明細スナップショットを作り、全明細の在庫十分性を先にまとめて確認する。
// 1件でも足りなければ何も適用せずエラーを返す（fail-fast）。
func (u *SaleUsecase) buildSaleItems(ctx context.Context, r repo.TxRepos, inputs []SaleItemInput) ([]model.SaleItem, decimal.Decimal, error) {
	items := make([]model.SaleItem, 0, len(inputs))
	subtotal := decimal.Zero

	for _, it := range inputs {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			return nil, decimal.Zero, NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %d not found", it.ProductID))
		}
		if err != nil {
			return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫の事前チェック。最終的な競合はApplyDeltaの条件付きUPDATEが防ぐ。
		if p.Stock < it.Quantity {
			return nil, decimal.Zero, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name}
		}

		total := it.Price.Mul(decimal.NewFromInt(it.Quantity))
		items = append(items, model.SaleItem{
			ProductID:   it.ProductID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Total:       total,
		})
		subtotal = subtotal.Add(total)
	}

	return items, subtotal, nil
}

func (u *SaleUsecase) CreateSale(ctx context.Context, sellerID int64, in SaleInput) (model.Sale, error) {
	if sellerID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Sale{}, err
	}

	var out model.Sale

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//顧客指定があれば存在確認
		if in.CustomerID != nil {
			if _, err := r.Customers().FindByID(ctx, *in.CustomerID); err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "customer not found")
			} else if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		items, subtotal, err := u.buildSaleItems(ctx, r, in.Items)
		if err != nil {
			return err
		}

		totalAmount := subtotal.Add(in.Tax).Sub(in.Discount)
		if totalAmount.IsNegative() {
			return NewHTTPError(http.StatusBadRequest, "discount exceeds total")
		}

		invoice := strings.TrimSpace(in.InvoiceNumber)
		if invoice == "" {
			invoice = newInvoiceNumber("INV", u.idGen)
		}

		date := in.Date
		if date.IsZero() {
			date = u.clock.Now()
		}

		created, err := r.Sales().Create(ctx, model.Sale{
			InvoiceNumber: invoice,
			CustomerID:    in.CustomerID,
			SellerID:      sellerID,
			Date:          date,
			Items:         items,
			Subtotal:      subtotal,
			Tax:           in.Tax,
			Discount:      in.Discount,
			TotalAmount:   totalAmount,
			AmountPaid:    in.AmountPaid,
			PaymentMethod: in.paymentMethod(),
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "invoice number already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//明細ごとに在庫を減らして台帳へ
		for _, it := range created.Items {
			if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
				ProductID:   it.ProductID,
				Delta:       -it.Quantity,
				Type:        model.StockLogSale,
				ReferenceID: &created.ID,
			}); err != nil {
				return err
			}
		}

		//未払い分は顧客の売掛残高へ
		outstanding := created.Outstanding()
		if in.CustomerID != nil && outstanding.IsPositive() {
			if err := r.Customers().AddBalance(ctx, *in.CustomerID, outstanding); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = created
		return nil
	})

	if err != nil {
		return model.Sale{}, err
	}
	return out, nil
}

// UpdateSaleは旧明細の在庫を戻してから新明細を適用する。
// すべて1つのtxで行うので、途中で失敗しても部分適用は残らない。
func (u *SaleUsecase) UpdateSale(ctx context.Context, saleID int64, in SaleInput) (model.Sale, error) {
	if saleID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}
	if err := in.validate(); err != nil {
		return model.Sale{}, err
	}

	var out model.Sale

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		old, err := r.Sales().FindByID(ctx, saleID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "sale not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if in.CustomerID != nil {
			if _, err := r.Customers().FindByID(ctx, *in.CustomerID); err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "customer not found")
			} else if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//旧明細の在庫を戻す（台帳にも残す）
		if err := u.reverseSaleItems(ctx, r, old, fmt.Sprintf("reversal: sale %s updated", old.InvoiceNumber)); err != nil {
			return err
		}

		items, subtotal, err := u.buildSaleItems(ctx, r, in.Items)
		if err != nil {
			return err
		}

		totalAmount := subtotal.Add(in.Tax).Sub(in.Discount)
		if totalAmount.IsNegative() {
			return NewHTTPError(http.StatusBadRequest, "discount exceeds total")
		}

		date := in.Date
		if date.IsZero() {
			date = old.Date
		}

		updated := model.Sale{
			ID:            old.ID,
			InvoiceNumber: old.InvoiceNumber,
			CustomerID:    in.CustomerID,
			SellerID:      old.SellerID,
			Date:          date,
			Subtotal:      subtotal,
			Tax:           in.Tax,
			Discount:      in.Discount,
			TotalAmount:   totalAmount,
			AmountPaid:    in.AmountPaid,
			PaymentMethod: in.paymentMethod(),
		}

		if err := r.Sales().Update(ctx, updated); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Sales().ReplaceItems(ctx, old.ID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//新明細を適用
		for _, it := range items {
			if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
				ProductID:   it.ProductID,
				Delta:       -it.Quantity,
				Type:        model.StockLogSale,
				ReferenceID: &old.ID,
			}); err != nil {
				return err
			}
		}

		//売掛残高の付け替え
		if err := u.applyBalanceDiff(ctx, r, old.CustomerID, old.Outstanding(), in.CustomerID, updated.Outstanding()); err != nil {
			return err
		}

		final, err := r.Sales().FindByID(ctx, old.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = final
		return nil
	})

	if err != nil {
		return model.Sale{}, err
	}
	return out, nil
}

func (u *SaleUsecase) DeleteSale(ctx context.Context, saleID int64) error {
	if saleID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		old, err := r.Sales().FindByID(ctx, saleID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "sale not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.reverseSaleItems(ctx, r, old, fmt.Sprintf("reversal: sale %s deleted", old.InvoiceNumber)); err != nil {
			return err
		}

		//売掛残高から未払い分を引く（下限0）
		outstanding := old.Outstanding()
		if old.CustomerID != nil && outstanding.IsPositive() {
			if err := wrapCustomerBalanceErr(r.Customers().AddBalance(ctx, *old.CustomerID, outstanding.Neg())); err != nil {
				return err
			}
		}

		//売上本体は消すが、台帳は消さない（追記のみ）
		if err := r.Sales().Delete(ctx, saleID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 旧明細の数量をADJUSTMENTで積み戻す
func (u *SaleUsecase) reverseSaleItems(ctx context.Context, r repo.TxRepos, s model.Sale, reason string) error {
	for _, it := range s.Items {
		if _, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
			ProductID:   it.ProductID,
			Delta:       it.Quantity,
			Type:        model.StockLogAdjustment,
			Reason:      reason,
			ReferenceID: &s.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// 顧客が変わらなければ差分だけ、変わったら旧顧客から引いて新顧客に積む。
// AddBalanceは下限0で適用される。
func (u *SaleUsecase) applyBalanceDiff(
	ctx context.Context,
	r repo.TxRepos,
	oldCustomerID *int64,
	oldOutstanding decimal.Decimal,
	newCustomerID *int64,
	newOutstanding decimal.Decimal,
) error {
	sameCustomer := oldCustomerID != nil && newCustomerID != nil && *oldCustomerID == *newCustomerID

	if sameCustomer {
		diff := newOutstanding.Sub(oldOutstanding)
		if diff.IsZero() {
			return nil
		}
		return wrapCustomerBalanceErr(r.Customers().AddBalance(ctx, *newCustomerID, diff))
	}

	//顧客が変わった場合、旧顧客は削除済みのこともある
	if oldCustomerID != nil && oldOutstanding.IsPositive() {
		if err := wrapCustomerBalanceErr(r.Customers().AddBalance(ctx, *oldCustomerID, oldOutstanding.Neg())); err != nil {
			return err
		}
	}
	if newCustomerID != nil && newOutstanding.IsPositive() {
		if err := wrapCustomerBalanceErr(r.Customers().AddBalance(ctx, *newCustomerID, newOutstanding)); err != nil {
			return err
		}
	}
	return nil
}

func wrapCustomerBalanceErr(err error) error {
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "customer not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type ListSalesInput struct {
	CustomerID *int64
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type SaleListOutput struct {
	Items []model.Sale `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *SaleUsecase) ListSales(ctx context.Context, in ListSalesInput) (SaleListOutput, error) {
	if in.Page < 1 {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return SaleListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out SaleListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sales, total, err := r.Sales().List(ctx, repo.SaleListFilter{
			CustomerID: in.CustomerID,
			From:       in.From,
			To:         in.To,
			Page:       in.Page,
			Limit:      in.Limit,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = SaleListOutput{Items: sales, Total: total, Page: in.Page, Limit: in.Limit}
		return nil
	})

	if err != nil {
		return SaleListOutput{}, err
	}
	return out, nil
}

func (u *SaleUsecase) GetSale(ctx context.Context, saleID int64) (model.Sale, error) {
	if saleID <= 0 {
		return model.Sale{}, NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}

	var out model.Sale

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Sales().FindByID(ctx, saleID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "sale not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = s
		return nil
	})

	if err != nil {
		return model.Sale{}, err
	}
	return out, nil
}

// 伝票番号。prefix + uuidの先頭8桁。
func newInvoiceNumber(prefix string, idGen IDGenerator) string {
	id := idGen.NewID()
	if len(id) > 8 {
		id = id[:8]
	}
	return prefix + "-" + strings.ToUpper(id)
}
