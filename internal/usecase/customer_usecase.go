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

type CustomerUsecase struct {
	tx           repo.TransactionManager
	customerRepo repo.CustomerRepository
}

// DI
func NewCustomerUsecase(tx repo.TransactionManager, customerRepo repo.CustomerRepository) *CustomerUsecase {
	return &CustomerUsecase{tx: tx, customerRepo: customerRepo}
}

func (u *CustomerUsecase) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	customers, err := u.customerRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return customers, nil
}

func (u *CustomerUsecase) GetCustomer(ctx context.Context, customerID int64) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	c, err := u.customerRepo.FindByID(ctx, customerID)
	if err == repo.ErrNotFound {
		return model.Customer{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

type CustomerInput struct {
	Name    string
	Phone   string
	Address string
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return NewHTTPError(http.StatusBadRequest, "phone required")
	}
	return nil
}

func (u *CustomerUsecase) CreateCustomer(ctx context.Context, actorUserID int64, in CustomerInput) (model.Customer, error) {
	if actorUserID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Customer{}, err
	}

	var out model.Customer

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err := r.Customers().Create(ctx, model.Customer{
			Name:    strings.TrimSpace(in.Name),
			Phone:   strings.TrimSpace(in.Phone),
			Address: in.Address,
			Balance: decimal.Zero,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateCustomer,
			ResourceType: model.AuditResourceCustomer,
			ResourceID:   created.ID,
			AfterJSON:    customerJSON(created),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = created
		return nil
	})

	if err != nil {
		return model.Customer{}, err
	}
	return out, nil
}

func (u *CustomerUsecase) UpdateCustomer(ctx context.Context, actorUserID int64, customerID int64, in CustomerInput) (model.Customer, error) {
	if actorUserID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if customerID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	if err := in.validate(); err != nil {
		return model.Customer{}, err
	}

	var out model.Customer

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Customers().FindByID(ctx, customerID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		err = r.Customers().Update(ctx, model.Customer{
			ID:      customerID,
			Name:    strings.TrimSpace(in.Name),
			Phone:   strings.TrimSpace(in.Phone),
			Address: in.Address,
		})
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after, err := r.Customers().FindByID(ctx, customerID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateCustomer,
			ResourceType: model.AuditResourceCustomer,
			ResourceID:   customerID,
			BeforeJSON:   customerJSON(before),
			AfterJSON:    customerJSON(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = after
		return nil
	})

	if err != nil {
		return model.Customer{}, err
	}
	return out, nil
}

func (u *CustomerUsecase) DeleteCustomer(ctx context.Context, actorUserID int64, customerID int64) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if customerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Customers().FindByID(ctx, customerID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Customers().Delete(ctx, customerID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionDeleteCustomer,
			ResourceType: model.AuditResourceCustomer,
			ResourceID:   customerID,
			BeforeJSON:   customerJSON(before),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 売掛残高を符号付きで増減する。負の金額が入金。残高は0未満にならない。
func (u *CustomerUsecase) AdjustBalance(ctx context.Context, customerID int64, amount decimal.Decimal) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	if amount.IsZero() {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "amount must not be zero")
	}

	if _, err := u.GetCustomer(ctx, customerID); err != nil {
		return model.Customer{}, err
	}

	if err := u.customerRepo.AddBalance(ctx, customerID, amount); err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.GetCustomer(ctx, customerID)
}

func customerJSON(c model.Customer) string {
	b, _ := json.Marshal(map[string]interface{}{
		"name":    c.Name,
		"phone":   c.Phone,
		"address": c.Address,
	})
	return string(b)
}
