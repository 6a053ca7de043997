package repository

import (
	"errors"

	repo "inventory/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// 一意制約違反をrepo.ErrDuplicateに寄せる
func translateDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrDuplicate
	}
	return err
}
