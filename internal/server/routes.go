package server

import (
	"inventory/internal/config"
	"inventory/internal/repository"

	"github.com/labstack/echo/v4"

	appmw "inventory/internal/middleware"
)

// ルート定義。
// 認証なし: /auth/*（me以外）
// 認証あり: 閲覧・販売・顧客管理
// ADMIN:    商品/カテゴリ/仕入先の変更、仕入、在庫調整、ユーザー管理、監査ログ
func registerRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	authed := e.Group("",
		appmw.AuthJWT(cfg),
		appmw.TokenVersionGuard(userRepo),
	)
	admin := e.Group("",
		appmw.AuthJWT(cfg),
		appmw.TokenVersionGuard(userRepo),
		appmw.AdminRoleGuard(),
	)

	h.Auth.RegisterRoutes(e, authed)
	h.Product.RegisterRoutes(authed, admin)
	h.Category.RegisterRoutes(authed, admin)
	h.Supplier.RegisterRoutes(authed, admin)
	h.Customer.RegisterRoutes(authed, admin)
	h.Sale.RegisterRoutes(authed, admin)
	h.Purchase.RegisterRoutes(authed, admin)
	h.Stock.RegisterRoutes(authed, admin)
	h.Report.RegisterRoutes(authed)
	h.AdminUser.RegisterRoutes(admin)
	h.Audit.RegisterRoutes(admin)
}
