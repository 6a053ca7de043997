package handler

import (
	"net/http"

	"inventory/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 監査ログの参照API（ADMINのみ）。
type AuditHandler struct {
	uc *usecase.AuditUsecase
}

// DI
func NewAuditHandler(uc *usecase.AuditUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/audit-logs", h.list)
}

func (h *AuditHandler) list(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return writeError(c, err)
	}

	actorUserID, err := queryInt64(c, "actor_user_id")
	if err != nil {
		return writeError(c, err)
	}
	resourceID, err := queryInt64(c, "resource_id")
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

	out, err := h.uc.ListAuditLogs(c.Request().Context(), usecase.ListAuditLogsInput{
		ActorUserID:  actorUserID,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		CreatedFrom:  from,
		CreatedTo:    to,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
