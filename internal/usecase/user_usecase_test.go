package usecase_test

import (
	"context"
	"testing"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func newUserFixture() (*fakeUserRepo, *fakeRefreshTokenRepo, *fakeState, *usecase.UserUsecase) {
	users := newFakeUserRepo()
	tokens := newFakeRefreshTokenRepo()
	s := newFakeState()
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := usecase.NewUserUsecase(users, tokens, &fakeAuditRepo{s: s}, clock)
	return users, tokens, s, uc
}

func TestUserUsecase_SetRole_BumpsTokenVersion(t *testing.T) {
	users, _, s, uc := newUserFixture()
	ctx := context.Background()

	staff, _ := users.Create(ctx, model.User{Name: "A", Email: "a@example.com", Role: model.RoleStaff, IsActive: true})

	updated, err := uc.SetRole(ctx, 99, staff.ID, model.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.Equal(t, staff.TokenVersion+1, updated.TokenVersion)

	assert.Len(t, s.audits, 1)
	assert.Equal(t, model.AuditActionUpdateUser, s.audits[0].Action)
}

func TestUserUsecase_SetRole_CannotChangeSelf(t *testing.T) {
	users, _, _, uc := newUserFixture()
	ctx := context.Background()

	admin, _ := users.Create(ctx, model.User{Name: "A", Email: "a@example.com", Role: model.RoleAdmin, IsActive: true})

	_, err := uc.SetRole(ctx, admin.ID, admin.ID, model.RoleStaff)
	assertErrContains(t, err, "cannot change own role")
}

// 無効化するとリフレッシュトークンも全部失効する。
func TestUserUsecase_SetActive_RevokesTokens(t *testing.T) {
	users, tokens, _, uc := newUserFixture()
	ctx := context.Background()

	staff, _ := users.Create(ctx, model.User{Name: "A", Email: "a@example.com", Role: model.RoleStaff, IsActive: true})
	_ = tokens.Create(ctx, model.RefreshToken{ID: "t1", UserID: staff.ID, TokenHash: "x"})

	updated, err := uc.SetActive(ctx, 99, staff.ID, false)
	assert.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.NotNil(t, tokens.tokens["t1"].RevokedAt)
}

func TestUserUsecase_SetRole_InvalidRole(t *testing.T) {
	_, _, _, uc := newUserFixture()

	_, err := uc.SetRole(context.Background(), 99, 1, model.Role("SUPERUSER"))
	assertErrContains(t, err, "invalid role")
}
