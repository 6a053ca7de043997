package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫調整・台帳・在庫僅少のAPI。
type StockHandler struct {
	uc *usecase.StockUsecase
}

// DI
func NewStockHandler(uc *usecase.StockUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

func (h *StockHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	admin.POST("/stock-adjustments", h.adjust)
	authed.GET("/stock-logs", h.logs)
	authed.GET("/stock-logs/in", h.stockIn)
	authed.GET("/stock-logs/out", h.stockOut)
	authed.GET("/products/low-stock", h.lowStock)
}

type adjustStockRequest struct {
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	NewQuantity int64  `json:"new_quantity" validate:"gte=0"`
	Reason      string `json:"reason" validate:"required,max=255"`
}

func (h *StockHandler) adjust(c echo.Context) error {
	var req adjustStockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdjustStock(c.Request().Context(), currentUserID(c), usecase.AdjustStockInput{
		ProductID:   req.ProductID,
		NewQuantity: req.NewQuantity,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StockHandler) logs(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	productID, err := queryInt64(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListStockLogs(c.Request().Context(), usecase.ListStockLogsInput{
		ProductID: productID,
		Type:      c.QueryParam("type"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StockHandler) stockIn(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.StockInHistory(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StockHandler) stockOut(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.StockOutHistory(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StockHandler) lowStock(c echo.Context) error {
	threshold, err := queryInt64(c, "threshold")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListLowStock(c.Request().Context(), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
