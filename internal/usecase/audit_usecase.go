package usecase

import (
	"context"
	"net/http"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

// DI
func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page         int
	Limit        int
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditUsecase) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) (AuditLogListOutput, error) {
	if in.Page < 1 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 200 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.CreatedFrom,
		CreatedTo:   in.CreatedTo,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}

	if in.Action != "" {
		a := model.AuditAction(in.Action)
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		f.ResourceType = &rt
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AuditLogListOutput{Items: logs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
