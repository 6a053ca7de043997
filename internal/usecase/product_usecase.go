package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	stock       *StockService
	productRepo repo.ProductRepository
	auditRepo   repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	stock *StockService,
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		stock:       stock,
		productRepo: productRepo,
		auditRepo:   auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "name", "stock_asc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type ProductInput struct {
	SKU             string
	Name            string
	Description     string
	Unit            string
	CategoryID      *int64
	SupplierID      *int64
	PurchasePrice   decimal.Decimal
	SellingPrice    decimal.Decimal
	Stock           int64 //作成時のみ。更新では無視する。
	MinimumQuantity int64
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return NewHTTPError(http.StatusBadRequest, "sku required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.PurchasePrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "purchase_price must be >= 0")
	}
	if in.SellingPrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "selling_price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.MinimumQuantity < 0 {
		return NewHTTPError(http.StatusBadRequest, "minimum_quantity must be >= 0")
	}
	return nil
}

// 商品登録。初期在庫があれば台帳にもADJUSTMENTで残す。
func (u *ProductUsecase) CreateProduct(ctx context.Context, actorUserID int64, in ProductInput) (model.Product, error) {
	if actorUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sku := strings.TrimSpace(in.SKU)

		if _, found, err := r.Products().FindBySKU(ctx, sku); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		} else if found {
			return NewHTTPError(http.StatusConflict, "sku already exists")
		}

		//在庫0で作り、初期在庫はApplyDelta経由で入れる（台帳を完全に保つ）
		created, err := r.Products().Create(ctx, model.Product{
			SKU:             sku,
			Name:            strings.TrimSpace(in.Name),
			Description:     in.Description,
			Unit:            in.Unit,
			CategoryID:      in.CategoryID,
			SupplierID:      in.SupplierID,
			PurchasePrice:   in.PurchasePrice,
			SellingPrice:    in.SellingPrice,
			Stock:           0,
			MinimumQuantity: in.MinimumQuantity,
			LowStock:        in.MinimumQuantity > 0,
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "sku already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = created

		if in.Stock > 0 {
			updated, _, err := u.stock.ApplyDelta(ctx, r, StockDelta{
				ProductID: created.ID,
				Delta:     in.Stock,
				Type:      model.StockLogAdjustment,
				Reason:    "initial stock",
			})
			if err != nil {
				return err
			}
			out = updated
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   out.ID,
			AfterJSON:    productJSON(out),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// 商品更新。在庫数はここでは変えない（在庫調整APIを使う）。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actorUserID int64, productID int64, in ProductInput) (model.Product, error) {
	if actorUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var out model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		err = r.Products().Update(ctx, model.Product{
			ID:              productID,
			SKU:             strings.TrimSpace(in.SKU),
			Name:            strings.TrimSpace(in.Name),
			Description:     in.Description,
			Unit:            in.Unit,
			CategoryID:      in.CategoryID,
			SupplierID:      in.SupplierID,
			PurchasePrice:   in.PurchasePrice,
			SellingPrice:    in.SellingPrice,
			MinimumQuantity: in.MinimumQuantity,
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "sku already exists")
		}
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   productJSON(before),
			AfterJSON:    productJSON(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = after
		return nil
	})

	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, actorUserID int64, productID int64) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//台帳から参照されていても消せるようsoft delete
		if err := r.Products().SoftDelete(ctx, productID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   productJSON(before),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func productJSON(p model.Product) string {
	b, _ := json.Marshal(map[string]interface{}{
		"sku":              p.SKU,
		"name":             p.Name,
		"purchase_price":   p.PurchasePrice,
		"selling_price":    p.SellingPrice,
		"stock":            p.Stock,
		"minimum_quantity": p.MinimumQuantity,
	})
	return string(b)
}
