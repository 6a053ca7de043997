package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

// DI
func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/categories", h.list)
	authed.GET("/categories/:id", h.detail)
	admin.POST("/categories", h.create)
	admin.PUT("/categories/:id", h.update)
	admin.DELETE("/categories/:id", h.remove)
}

func (h *CategoryHandler) list(c echo.Context) error {
	categories, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	category, err := h.uc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *CategoryHandler) create(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	category, err := h.uc.CreateCategory(c.Request().Context(), currentUserID(c), usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	category, err := h.uc.UpdateCategory(c.Request().Context(), currentUserID(c), id, usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteCategory(c.Request().Context(), currentUserID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
