package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CustomerHandler struct {
	uc *usecase.CustomerUsecase
}

// DI
func NewCustomerHandler(uc *usecase.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

func (h *CustomerHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/customers", h.list)
	authed.GET("/customers/:id", h.detail)
	authed.POST("/customers", h.create)
	authed.PUT("/customers/:id", h.update)
	admin.DELETE("/customers/:id", h.remove)
	authed.PUT("/customers/:id/balance", h.updateBalance)
}

func (h *CustomerHandler) list(c echo.Context) error {
	customers, err := h.uc.ListCustomers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	customer, err := h.uc.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

type customerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Address string `json:"address" validate:"max=255"`
}

func (h *CustomerHandler) create(c echo.Context) error {
	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	customer, err := h.uc.CreateCustomer(c.Request().Context(), currentUserID(c), usecase.CustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	customer, err := h.uc.UpdateCustomer(c.Request().Context(), currentUserID(c), id, usecase.CustomerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteCustomer(c.Request().Context(), currentUserID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type balanceRequest struct {
	Amount float64 `json:"amount" validate:"required"`
}

// 売掛残高の手動増減。負の金額で入金を記録する。
func (h *CustomerHandler) updateBalance(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req balanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	customer, err := h.uc.AdjustBalance(c.Request().Context(), id, decimal.NewFromFloat(req.Amount))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}
