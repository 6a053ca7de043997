package handler

import (
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向けユーザー管理API。
type AdminUserHandler struct {
	uc *usecase.UserUsecase
}

// DI
func NewAdminUserHandler(uc *usecase.UserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.list)
	admin.PUT("/users/:id/role", h.setRole)
	admin.PUT("/users/:id/active", h.setActive)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN STAFF"`
}

func (h *AdminUserHandler) setRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req setRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	user, err := h.uc.SetRole(c.Request().Context(), currentUserID(c), id, model.Role(req.Role))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *AdminUserHandler) setActive(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req setActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	user, err := h.uc.SetActive(c.Request().Context(), currentUserID(c), id, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
