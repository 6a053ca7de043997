package handler

import (
	"net/http"
	"time"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /sales のAPI。販売はSTAFFでも行える。
type SaleHandler struct {
	uc *usecase.SaleUsecase
}

// DI
func NewSaleHandler(uc *usecase.SaleUsecase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

func (h *SaleHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/sales", h.list)
	authed.GET("/sales/:id", h.detail)
	authed.POST("/sales", h.create)
	admin.PUT("/sales/:id", h.update)
	admin.DELETE("/sales/:id", h.remove)
}

type saleItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type saleRequest struct {
	CustomerID    *int64            `json:"customer_id"`
	InvoiceNumber string            `json:"invoice_number" validate:"max=64"`
	Date          string            `json:"date"` // YYYY-MM-DD
	Items         []saleItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	Tax           float64           `json:"tax" validate:"gte=0"`
	Discount      float64           `json:"discount" validate:"gte=0"`
	AmountPaid    float64           `json:"amount_paid" validate:"gte=0"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=cash card mobile"`
}

func (req saleRequest) toInput() (usecase.SaleInput, error) {
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return usecase.SaleInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		date = d
	}

	items := make([]usecase.SaleItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     decimal.NewFromFloat(it.Price),
		})
	}

	return usecase.SaleInput{
		CustomerID:    req.CustomerID,
		InvoiceNumber: req.InvoiceNumber,
		Date:          date,
		Items:         items,
		Tax:           decimal.NewFromFloat(req.Tax),
		Discount:      decimal.NewFromFloat(req.Discount),
		AmountPaid:    decimal.NewFromFloat(req.AmountPaid),
		PaymentMethod: req.PaymentMethod,
	}, nil
}

func (h *SaleHandler) list(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	customerID, err := queryInt64(c, "customer_id")
	if err != nil {
		return writeError(c, err)
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListSales(c.Request().Context(), usecase.ListSalesInput{
		CustomerID: customerID,
		From:       from,
		To:         to,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SaleHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.GetSale(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) create(c echo.Context) error {
	var req saleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.CreateSale(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SaleHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req saleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	s, err := h.uc.UpdateSale(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteSale(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
