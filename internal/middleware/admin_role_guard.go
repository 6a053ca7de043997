package middleware

import (
	"net/http"

	"inventory/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTが積んだroleがADMINのときだけ通す。
// roleが無い（AuthJWTを通っていない）場合は401。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			return next(c)
		}
	}
}
