package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

// 管理者によるユーザー管理。
type UserUsecase struct {
	userRepo  repo.UserRepository
	tokenRepo repo.RefreshTokenRepository
	auditRepo repo.AuditLogRepository
	clock     Clock
}

// DI
func NewUserUsecase(
	userRepo repo.UserRepository,
	tokenRepo repo.RefreshTokenRepository,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *UserUsecase {
	return &UserUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		auditRepo: auditRepo,
		clock:     clock,
	}
}

type UserListOutput struct {
	Items []model.User `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *UserUsecase) ListUsers(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page < 1 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	users, total, err := u.userRepo.List(ctx, page, limit)
	if err != nil {
		return UserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return UserListOutput{Items: users, Total: total, Page: page, Limit: limit}, nil
}

// 権限変更。token_versionが上がるので既存アクセストークンは無効になる。
func (u *UserUsecase) SetRole(ctx context.Context, actorUserID int64, userID int64, role model.Role) (model.User, error) {
	if role != model.RoleAdmin && role != model.RoleStaff {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	if actorUserID == userID {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "cannot change own role")
	}

	before, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.userRepo.SetRole(ctx, userID, role); err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditUserChange(ctx, actorUserID, before, after); err != nil {
		return model.User{}, err
	}
	return after, nil
}

// 有効/無効の切り替え。無効化時はリフレッシュトークンも全部落とす。
func (u *UserUsecase) SetActive(ctx context.Context, actorUserID int64, userID int64, isActive bool) (model.User, error) {
	if actorUserID == userID {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "cannot change own account")
	}

	before, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.userRepo.SetActive(ctx, userID, isActive); err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !isActive {
		if err := u.tokenRepo.RevokeAllForUser(ctx, userID, u.clock.Now()); err != nil {
			return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	after, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditUserChange(ctx, actorUserID, before, after); err != nil {
		return model.User{}, err
	}
	return after, nil
}

func (u *UserUsecase) auditUserChange(ctx context.Context, actorUserID int64, before model.User, after model.User) error {
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   after.ID,
		BeforeJSON:   userJSON(before),
		AfterJSON:    userJSON(after),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func userJSON(usr model.User) string {
	b, _ := json.Marshal(map[string]interface{}{
		"email":     usr.Email,
		"role":      usr.Role,
		"is_active": usr.IsActive,
	})
	return string(b)
}
