package main

import (
	"time"

	"inventory/internal/config"
	"inventory/internal/domain/model"
	"inventory/internal/handler"
	"inventory/internal/infra/db"
	infraRepo "inventory/internal/infra/repository"
	"inventory/internal/server"
	"inventory/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret []byte
}

func (i *jwtIssuer) Issue(user model.User, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(i.secret)
}

func main() {
	//.envは無くてもよい（本番は環境変数直指定）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}

	if cfg.GoEnv == "dev" {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("db connect failed")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Supplier{},
		&model.Customer{},
		&model.Product{},
		&model.StockLog{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.AuditLog{},
	); err != nil {
		logrus.WithError(err).Fatal("migrate failed")
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	stockLogRepo := infraRepo.NewStockLogGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	supplierRepo := infraRepo.NewSupplierGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	saleRepo := infraRepo.NewSaleGormRepository(gormDB)
	purchaseRepo := infraRepo.NewPurchaseGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	reportRepo := infraRepo.NewReportGormRepository(gormDB)
	_ = saleRepo
	_ = purchaseRepo

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()
	issuer := &jwtIssuer{secret: []byte(cfg.JWTSecret)}
	stockSvc := usecase.NewStockService()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, hasher, verifier, issuer, idGen, clock)
	productUC := usecase.NewProductUsecase(txManager, stockSvc, productRepo, auditRepo)
	categoryUC := usecase.NewCategoryUsecase(txManager, categoryRepo)
	supplierUC := usecase.NewSupplierUsecase(txManager, supplierRepo)
	customerUC := usecase.NewCustomerUsecase(txManager, customerRepo)
	saleUC := usecase.NewSaleUsecase(txManager, stockSvc, idGen, clock)
	purchaseUC := usecase.NewPurchaseUsecase(txManager, stockSvc, idGen, clock)
	stockUC := usecase.NewStockUsecase(txManager, stockSvc, stockLogRepo, productRepo)
	reportUC := usecase.NewReportUsecase(reportRepo, clock)
	userUC := usecase.NewUserUsecase(userRepo, rtRepo, auditRepo, clock)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:      handler.NewAuthHandler(authUC),
		Product:   handler.NewProductHandler(productUC),
		Category:  handler.NewCategoryHandler(categoryUC),
		Supplier:  handler.NewSupplierHandler(supplierUC),
		Customer:  handler.NewCustomerHandler(customerUC),
		Sale:      handler.NewSaleHandler(saleUC),
		Purchase:  handler.NewPurchaseHandler(purchaseUC),
		Stock:     handler.NewStockHandler(stockUC),
		Report:    handler.NewReportHandler(reportUC),
		AdminUser: handler.NewAdminUserHandler(userUC),
		Audit:     handler.NewAuditHandler(auditUC),
	}

	//Server起動
	e := server.New(cfg, userRepo, handlers)
	if err := server.Start(e, cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
