package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

// 在庫調整と台帳参照のusecase。
type StockUsecase struct {
	tx       repo.TransactionManager
	stock    *StockService
	logs     repo.StockLogRepository
	products repo.ProductRepository
}

// DI
func NewStockUsecase(
	tx repo.TransactionManager,
	stock *StockService,
	logs repo.StockLogRepository,
	products repo.ProductRepository,
) *StockUsecase {
	return &StockUsecase{
		tx:       tx,
		stock:    stock,
		logs:     logs,
		products: products,
	}
}

type AdjustStockInput struct {
	ProductID   int64
	NewQuantity int64
	Reason      string
}

type AdjustStockOutput struct {
	Message string         `json:"message"`
	Product model.Product  `json:"product"`
	Log     model.StockLog `json:"log"`
}

// 在庫を「現在値」に合わせる。差分はADJUSTMENTとして台帳に残す。
func (u *StockUsecase) AdjustStock(ctx context.Context, actorUserID int64, in AdjustStockInput) (AdjustStockOutput, error) {
	if actorUserID <= 0 {
		return AdjustStockOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return AdjustStockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.NewQuantity < 0 {
		return AdjustStockOutput{}, NewHTTPError(http.StatusBadRequest, "quantity cannot be negative")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return AdjustStockOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var out AdjustStockOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		delta := in.NewQuantity - p.Stock

		//差分0でも「調整した」事実は台帳に残す
		updated, log, err := u.stock.ApplyDelta(ctx, r, StockDelta{
			ProductID: in.ProductID,
			Delta:     delta,
			Type:      model.StockLogAdjustment,
			Reason:    strings.TrimSpace(in.Reason),
		})
		if err != nil {
			return err
		}

		//監査ログ（誰が調整したか）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionAdjustStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   in.ProductID,
			BeforeJSON:   stockJSON(p.Stock),
			AfterJSON:    stockJSON(updated.Stock),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = AdjustStockOutput{Message: "stock adjusted", Product: updated, Log: log}
		return nil
	})

	if err != nil {
		return AdjustStockOutput{}, err
	}
	return out, nil
}

type ListStockLogsInput struct {
	ProductID *int64
	Type      string
	Page      int
	Limit     int
}

type StockLogListOutput struct {
	Items []model.StockLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *StockUsecase) ListStockLogs(ctx context.Context, in ListStockLogsInput) (StockLogListOutput, error) {
	if in.Page < 1 {
		return StockLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 200 {
		return StockLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.StockLogFilter{
		ProductID: in.ProductID,
		Page:      in.Page,
		Limit:     in.Limit,
	}

	switch in.Type {
	case "":
	case string(model.StockLogPurchase), string(model.StockLogSale), string(model.StockLogAdjustment):
		t := model.StockLogType(in.Type)
		f.Type = &t
	default:
		return StockLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid type")
	}

	logs, total, err := u.logs.List(ctx, f)
	if err != nil {
		return StockLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return StockLogListOutput{Items: logs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 入庫履歴（仕入で増えた分）
func (u *StockUsecase) StockInHistory(ctx context.Context, page int, limit int) (StockLogListOutput, error) {
	return u.ListStockLogs(ctx, ListStockLogsInput{Type: string(model.StockLogPurchase), Page: page, Limit: limit})
}

// 出庫履歴（売上で減った分）
func (u *StockUsecase) StockOutHistory(ctx context.Context, page int, limit int) (StockLogListOutput, error) {
	return u.ListStockLogs(ctx, ListStockLogsInput{Type: string(model.StockLogSale), Page: page, Limit: limit})
}

type LowStockOutput struct {
	Count int64           `json:"count"`
	Items []model.Product `json:"items"`
}

// 在庫僅少の商品一覧。thresholdが正ならそちらを優先する。
func (u *StockUsecase) ListLowStock(ctx context.Context, threshold *int64) (LowStockOutput, error) {
	var t *int64
	if threshold != nil && *threshold > 0 {
		t = threshold
	}

	products, err := u.products.ListLowStock(ctx, t)
	if err != nil {
		return LowStockOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return LowStockOutput{Count: int64(len(products)), Items: products}, nil
}

func stockJSON(stock int64) string {
	b, _ := json.Marshal(map[string]int64{"stock": stock})
	return string(b)
}
