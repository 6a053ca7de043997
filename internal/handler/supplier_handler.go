package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SupplierHandler struct {
	uc *usecase.SupplierUsecase
}

// DI
func NewSupplierHandler(uc *usecase.SupplierUsecase) *SupplierHandler {
	return &SupplierHandler{uc: uc}
}

func (h *SupplierHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/suppliers", h.list)
	authed.GET("/suppliers/:id", h.detail)
	admin.POST("/suppliers", h.create)
	admin.PUT("/suppliers/:id", h.update)
	admin.DELETE("/suppliers/:id", h.remove)
	admin.POST("/suppliers/:id/payments", h.pay)
}

func (h *SupplierHandler) list(c echo.Context) error {
	suppliers, err := h.uc.ListSuppliers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, suppliers)
}

func (h *SupplierHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.GetSupplier(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

type supplierRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
}

func (h *SupplierHandler) create(c echo.Context) error {
	var req supplierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.CreateSupplier(c.Request().Context(), currentUserID(c), usecase.SupplierInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SupplierHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req supplierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.UpdateSupplier(c.Request().Context(), currentUserID(c), id, usecase.SupplierInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SupplierHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteSupplier(c.Request().Context(), currentUserID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type paymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// 仕入先への支払い。未払い残高を減らす。
func (h *SupplierHandler) pay(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req paymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.RecordPayment(c.Request().Context(), id, decimal.NewFromFloat(req.Amount))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
