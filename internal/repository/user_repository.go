package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)
	Create(ctx context.Context, u model.User) (model.User, error)

	SetRole(ctx context.Context, id int64, role model.Role) error
	SetActive(ctx context.Context, id int64, isActive bool) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
