package server

import (
	"inventory/internal/config"
	"inventory/internal/handler"
	"inventory/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	appmw "inventory/internal/middleware"
)

// Handlersはルーティングに必要なハンドラ一式。
type Handlers struct {
	Auth      *handler.AuthHandler
	Product   *handler.ProductHandler
	Category  *handler.CategoryHandler
	Supplier  *handler.SupplierHandler
	Customer  *handler.CustomerHandler
	Sale      *handler.SaleHandler
	Purchase  *handler.PurchaseHandler
	Stock     *handler.StockHandler
	Report    *handler.ReportHandler
	AdminUser *handler.AdminUserHandler
	Audit     *handler.AuditHandler
}

// Newはechoを組み立てて返す。Startは呼ばない。
func New(cfg config.Config, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(appmw.RequestLogger())

	registerRoutes(e, cfg, userRepo, h)

	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}
