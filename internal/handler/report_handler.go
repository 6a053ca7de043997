package handler

import (
	"net/http"
	"time"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReportHandler struct {
	uc *usecase.ReportUsecase
}

// DI
func NewReportHandler(uc *usecase.ReportUsecase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func (h *ReportHandler) RegisterRoutes(authed *echo.Group) {
	authed.GET("/reports/dashboard", h.dashboard)
	authed.GET("/reports/sales", h.sales)
}

func (h *ReportHandler) dashboard(c echo.Context) error {
	out, err := h.uc.Dashboard(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) sales(c echo.Context) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return writeError(c, err)
	}
	if from == nil || to == nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, "from and to required"))
	}

	//toの日の終わりまで含める
	toEnd := to.Add(24*time.Hour - time.Nanosecond)

	out, err := h.uc.SalesReport(c.Request().Context(), usecase.SalesReportInput{
		From: *from,
		To:   toEnd,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
