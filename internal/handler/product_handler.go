package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products のAPI。閲覧は認証済みなら誰でも、変更はADMINのみ。
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.GET("/products", h.list)
	authed.GET("/products/:id", h.detail)
	admin.POST("/products", h.create)
	admin.PUT("/products/:id", h.update)
	admin.DELETE("/products/:id", h.remove)
}

func (h *ProductHandler) list(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	categoryID, err := queryInt64(c, "category_id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

type productRequest struct {
	SKU             string  `json:"sku" validate:"required,max=64"`
	Name            string  `json:"name" validate:"required,max=255"`
	Description     string  `json:"description" validate:"max=2000"`
	Unit            string  `json:"unit" validate:"max=32"`
	CategoryID      *int64  `json:"category_id"`
	SupplierID      *int64  `json:"supplier_id"`
	PurchasePrice   float64 `json:"purchase_price" validate:"gte=0"`
	SellingPrice    float64 `json:"selling_price" validate:"gte=0"`
	Stock           int64   `json:"stock" validate:"gte=0"`
	MinimumQuantity int64   `json:"minimum_quantity" validate:"gte=0"`
}

func (req productRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Unit:            req.Unit,
		CategoryID:      req.CategoryID,
		SupplierID:      req.SupplierID,
		PurchasePrice:   decimal.NewFromFloat(req.PurchasePrice),
		SellingPrice:    decimal.NewFromFloat(req.SellingPrice),
		Stock:           req.Stock,
		MinimumQuantity: req.MinimumQuantity,
	}
}

func (h *ProductHandler) create(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), currentUserID(c), req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), currentUserID(c), id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), currentUserID(c), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
