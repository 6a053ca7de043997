package usecase

import (
	"context"
	"net/http"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

// 1回の在庫変更の入力
type StockDelta struct {
	ProductID int64
	//符号付き。SALEは負、PURCHASEは正、ADJUSTMENTは任意（0も可）。
	Delta       int64
	Type        model.StockLogType
	Reason      string
	ReferenceID *int64
}

// 在庫変更はすべてここを通す。
// 商品テーブルの更新1回と台帳の追記1回をワンセットで行う。
type StockService struct{}

func NewStockService() *StockService {
	return &StockService{}
}

// ApplyDeltaは在庫に差分を適用し、low_stockを再計算し、台帳に1件追記する。
// 必ずWithinTxの中から呼ぶこと。商品更新と台帳追記のどちらかだけが
// 残ることはない（txごとrollbackされる）。
func (s *StockService) ApplyDelta(ctx context.Context, r repo.TxRepos, in StockDelta) (model.Product, model.StockLog, error) {
	if in.ProductID <= 0 {
		return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	switch in.Type {
	case model.StockLogPurchase:
		if in.Delta <= 0 {
			return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusBadRequest, "purchase delta must be positive")
		}
	case model.StockLogSale:
		if in.Delta >= 0 {
			return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusBadRequest, "sale delta must be negative")
		}
	case model.StockLogAdjustment:
		//任意の符号を許す（0も記録する）
	default:
		return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusBadRequest, "invalid stock log type")
	}

	//条件付きUPDATE。在庫が負になるなら適用されない。
	p, err := r.Inventory().AddStockChecked(ctx, in.ProductID, in.Delta)
	if err == repo.ErrNotFound {
		return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err == repo.ErrInsufficientStock {
		ise := &InsufficientStockError{ProductID: in.ProductID}
		if found, ferr := r.Products().FindByID(ctx, in.ProductID); ferr == nil {
			ise.ProductName = found.Name
		}
		return model.Product{}, model.StockLog{}, ise
	}
	if err != nil {
		return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//PURCHASE/SALEは絶対値、ADJUSTMENTは符号付きで記録する
	qty := in.Delta
	if in.Type == model.StockLogSale {
		qty = -qty
	}

	log, err := r.StockLogs().Create(ctx, model.StockLog{
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      qty,
		PreviousStock: p.Stock - in.Delta,
		NewStock:      p.Stock,
		ReferenceID:   in.ReferenceID,
		Reason:        in.Reason,
	})
	if err != nil {
		return model.Product{}, model.StockLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return p, log, nil
}
