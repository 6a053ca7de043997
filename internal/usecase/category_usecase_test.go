package usecase_test

import (
	"context"
	"testing"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func newCategoryUsecase(s *fakeState) *usecase.CategoryUsecase {
	return usecase.NewCategoryUsecase(&fakeTxManager{s: s}, &fakeCategoryRepo{s: s})
}

// 作成・更新・削除は監査ログとセットで残る。
func TestCategoryUsecase_Mutations_Audited(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	uc := newCategoryUsecase(s)

	created, err := uc.CreateCategory(ctx, 7, usecase.CategoryInput{Name: "Drinks"})
	assert.NoError(t, err)
	assert.Equal(t, "Drinks", created.Name)

	_, err = uc.UpdateCategory(ctx, 7, created.ID, usecase.CategoryInput{Name: "Beverages"})
	assert.NoError(t, err)

	err = uc.DeleteCategory(ctx, 7, created.ID)
	assert.NoError(t, err)

	assert.Len(t, s.audits, 3)
	assert.Equal(t, model.AuditActionCreateCategory, s.audits[0].Action)
	assert.Equal(t, model.AuditActionUpdateCategory, s.audits[1].Action)
	assert.Equal(t, model.AuditActionDeleteCategory, s.audits[2].Action)
	for _, a := range s.audits {
		assert.Equal(t, int64(7), a.ActorUserID)
		assert.Equal(t, model.AuditResourceCategory, a.ResourceType)
		assert.Equal(t, created.ID, a.ResourceID)
	}
	assert.Contains(t, s.audits[1].BeforeJSON, "Drinks")
	assert.Contains(t, s.audits[1].AfterJSON, "Beverages")
}

func TestCategoryUsecase_Create_DuplicateName(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.addCategory(model.Category{Name: "Drinks"})

	uc := newCategoryUsecase(s)

	_, err := uc.CreateCategory(ctx, 7, usecase.CategoryInput{Name: "Drinks"})
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 409, he.Status)

	//失敗時は監査ログも残らない
	assert.Empty(t, s.audits)
}

func TestCategoryUsecase_Delete_NotFound(t *testing.T) {
	s := newFakeState()
	uc := newCategoryUsecase(s)

	err := uc.DeleteCategory(context.Background(), 7, 999)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}
