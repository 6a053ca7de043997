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

type CategoryUsecase struct {
	tx           repo.TransactionManager
	categoryRepo repo.CategoryRepository
}

// DI
func NewCategoryUsecase(tx repo.TransactionManager, categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{tx: tx, categoryRepo: categoryRepo}
}

func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return categories, nil
}

func (u *CategoryUsecase) GetCategory(ctx context.Context, categoryID int64) (model.Category, error) {
	if categoryID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	c, err := u.categoryRepo.FindByID(ctx, categoryID)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

type CategoryInput struct {
	Name        string
	Description string
}

// 作成も監査ログとセットで1トランザクションにする
func (u *CategoryUsecase) CreateCategory(ctx context.Context, actorUserID int64, in CategoryInput) (model.Category, error) {
	if actorUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	var out model.Category

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err := r.Categories().Create(ctx, model.Category{
			Name:        name,
			Description: in.Description,
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "category name already exists")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   created.ID,
			AfterJSON:    categoryJSON(created),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = created
		return nil
	})

	if err != nil {
		return model.Category{}, err
	}
	return out, nil
}

func (u *CategoryUsecase) UpdateCategory(ctx context.Context, actorUserID int64, categoryID int64, in CategoryInput) (model.Category, error) {
	if actorUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	var out model.Category

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Categories().FindByID(ctx, categoryID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		err = r.Categories().Update(ctx, model.Category{
			ID:          categoryID,
			Name:        name,
			Description: in.Description,
		})
		if err == repo.ErrDuplicate {
			return NewHTTPError(http.StatusConflict, "category name already exists")
		}
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after, err := r.Categories().FindByID(ctx, categoryID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   categoryID,
			BeforeJSON:   categoryJSON(before),
			AfterJSON:    categoryJSON(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = after
		return nil
	})

	if err != nil {
		return model.Category{}, err
	}
	return out, nil
}

func (u *CategoryUsecase) DeleteCategory(ctx context.Context, actorUserID int64, categoryID int64) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Categories().FindByID(ctx, categoryID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Categories().Delete(ctx, categoryID); err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		} else if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionDeleteCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   categoryID,
			BeforeJSON:   categoryJSON(before),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func categoryJSON(c model.Category) string {
	b, _ := json.Marshal(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
	})
	return string(b)
}
