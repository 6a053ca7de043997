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

type SupplierUsecase struct {
	tx           repo.TransactionManager
	supplierRepo repo.SupplierRepository
}

// DI
func NewSupplierUsecase(tx repo.TransactionManager, supplierRepo repo.SupplierRepository) *SupplierUsecase {
	return &SupplierUsecase{tx: tx, supplierRepo: supplierRepo}
}

func (u *SupplierUsecase) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	suppliers, err := u.supplierRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return suppliers, nil
}

func (u *SupplierUsecase) GetSupplier(ctx context.Context, supplierID int64) (model.Supplier, error) {
	if supplierID <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "invalid supplier id")
	}

	s, err := u.supplierRepo.FindByID(ctx, supplierID)
	if err == repo.ErrNotFound {
		return model.Supplier{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Supplier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

type SupplierInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (in SupplierInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	return nil
}

func (u *SupplierUsecase) CreateSupplier(ctx context.Context, actorUserID int64, in SupplierInput) (model.Supplier, error) {
	if actorUserID <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Supplier{}, err
	}

	var out model.Supplier

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err := r.Suppliers().Create(ctx, model.Supplier{
			Name:    strings.TrimSpace(in.Name),
			Phone:   in.Phone,
			Email:   in.Email,
			Address: in.Address,
			Balance: decimal.Zero,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateSupplier,
			ResourceType: model.AuditResourceSupplier,
			ResourceID:   created.ID,
			AfterJSON:    supplierJSON(created),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = created
		return nil
	})

	if err != nil {
		return model.Supplier{}, err
	}
	return out, nil
}

func (u *SupplierUsecase) UpdateSupplier(ctx context.Context, actorUserID int64, supplierID int64, in SupplierInput) (model.Supplier, error) {
	if actorUserID <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if supplierID <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "invalid supplier id")
	}
	if err := in.validate(); err != nil {
		return model.Supplier{}, err
	}

	var out model.Supplier

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Suppliers().FindByID(ctx, supplierID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		err = r.Suppliers().Update(ctx, model.Supplier{
			ID:      supplierID,
			Name:    strings.TrimSpace(in.Name),
			Phone:   in.Phone,
			Email:   in.Email,
			Address: in.Address,
		})
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after, err := r.Suppliers().FindByID(ctx, supplierID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateSupplier,
			ResourceType: model.AuditResourceSupplier,
			ResourceID:   supplierID,
			BeforeJSON:   supplierJSON(before),
			AfterJSON:    supplierJSON(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = after
		return nil
	})

	if err != nil {
		return model.Supplier{}, err
	}
	return out, nil
}

func (u *SupplierUsecase) DeleteSupplier(ctx context.Context, actorUserID int64, supplierID int64) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if supplierID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid supplier id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Suppliers().FindByID(ctx, supplierID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Suppliers().Delete(ctx, supplierID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionDeleteSupplier,
			ResourceType: model.AuditResourceSupplier,
			ResourceID:   supplierID,
			BeforeJSON:   supplierJSON(before),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 支払いを記録して未払い残高を減らす。残高は0未満にならない。
func (u *SupplierUsecase) RecordPayment(ctx context.Context, supplierID int64, amount decimal.Decimal) (model.Supplier, error) {
	if supplierID <= 0 {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "invalid supplier id")
	}
	if !amount.IsPositive() {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}

	if _, err := u.GetSupplier(ctx, supplierID); err != nil {
		return model.Supplier{}, err
	}

	if err := u.supplierRepo.AddBalance(ctx, supplierID, amount.Neg()); err != nil {
		return model.Supplier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.GetSupplier(ctx, supplierID)
}

func supplierJSON(s model.Supplier) string {
	b, _ := json.Marshal(map[string]interface{}{
		"name":    s.Name,
		"phone":   s.Phone,
		"email":   s.Email,
		"address": s.Address,
	})
	return string(b)
}
