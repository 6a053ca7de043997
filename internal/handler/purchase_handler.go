package handler

import (
	"net/http"
	"time"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /purchases のAPI。仕入はADMINのみ。
type PurchaseHandler struct {
	uc *usecase.PurchaseUsecase
}

// DI
func NewPurchaseHandler(uc *usecase.PurchaseUsecase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

func (h *PurchaseHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/purchases", h.list)
	authed.GET("/purchases/:id", h.detail)
	admin.POST("/purchases", h.create)
	admin.PUT("/purchases/:id", h.update)
	admin.DELETE("/purchases/:id", h.remove)
}

type purchaseItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

type purchaseRequest struct {
	SupplierID    int64                 `json:"supplier_id" validate:"required,gt=0"`
	InvoiceNumber string                `json:"invoice_number" validate:"max=64"`
	Date          string                `json:"date"` // YYYY-MM-DD
	Items         []purchaseItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	AmountPaid    float64               `json:"amount_paid" validate:"gte=0"`
}

func (req purchaseRequest) toInput() (usecase.PurchaseInput, error) {
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return usecase.PurchaseInput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		date = d
	}

	items := make([]usecase.PurchaseItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.PurchaseItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  decimal.NewFromFloat(it.UnitCost),
		})
	}

	return usecase.PurchaseInput{
		SupplierID:    req.SupplierID,
		InvoiceNumber: req.InvoiceNumber,
		Date:          date,
		Items:         items,
		AmountPaid:    decimal.NewFromFloat(req.AmountPaid),
	}, nil
}

func (h *PurchaseHandler) list(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	supplierID, err := queryInt64(c, "supplier_id")
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

	out, err := h.uc.ListPurchases(c.Request().Context(), usecase.ListPurchasesInput{
		SupplierID: supplierID,
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

func (h *PurchaseHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.GetPurchase(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PurchaseHandler) create(c echo.Context) error {
	var req purchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.CreatePurchase(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PurchaseHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req purchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in, err := req.toInput()
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.UpdatePurchase(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PurchaseHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeletePurchase(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
