package main

import (
	"errors"

	"github.com/printroll-next/internal/authz"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type rangeSeed struct {
	from  string
	to    string
	price string
	pct   string
}

// 标准印刷商品阶梯价（按米）
var printRangeSeeds = []rangeSeed{
	{from: "1", to: "4.99", price: "15"},
	{from: "5", to: "24.99", price: "12", pct: "20"},
	{from: "25", to: "49.99", price: "10", pct: "33.33"},
	{from: "50", price: "9", pct: "40"},
}

type productSeed struct {
	name        string
	description string
	unit        string
	sortOrder   int
	ranges      []rangeSeed
}

var extraProductSeeds = []productSeed{
	{
		name:        "Vinilo textil DTF por metro",
		description: "Impresión DTF sobre film de 58 cm de ancho, lista para planchar.",
		unit:        constants.ProductUnitMeter,
		sortOrder:   10,
		ranges:      printRangeSeeds,
	},
	{
		name:        "Prueba de color A4",
		description: "Hoja de prueba para validar colores antes del pedido.",
		unit:        constants.ProductUnitPiece,
		sortOrder:   20,
		ranges:      []rangeSeed{{from: "1", price: "3.50"}},
	},
}

type couponSeed struct {
	code  string
	kind  string
	value string
	min   string
	max   string
}

var couponSeeds = []couponSeed{
	{code: "BIENVENIDA10", kind: constants.CouponTypePercent, value: "10", min: "30", max: "25"},
	{code: "ENVIO5", kind: constants.CouponTypeFixed, value: "5", min: "50"},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Fatalf("Failed to init default admin: %v", err)
	}

	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	printProduct, err := models.EnsurePrintProduct(&models.Product{
		Slug:        slug.Make("Impresión DTF por metro"),
		Name:        "Impresión DTF por metro",
		Description: "Impresión bajo demanda por metro lineal, con corte y maquetación opcionales.",
		Unit:        constants.ProductUnitMeter,
		IsActive:    true,
	}, buildRanges(printRangeSeeds))
	if err != nil {
		stdLog.Fatalf("Failed to seed print product: %v", err)
	}
	logger.Infow("seed_print_product_ready", "product_id", printProduct.ID, "slug", printProduct.Slug)

	for _, item := range extraProductSeeds {
		if err := seedProduct(item); err != nil {
			logger.Warnw("seed_product_failed", "name", item.name, "error", err)
		}
	}
	for _, item := range couponSeeds {
		if err := seedCoupon(item); err != nil {
			logger.Warnw("seed_coupon_failed", "code", item.code, "error", err)
		}
	}

	logger.Infow("seed_completed")
}

func seedProduct(item productSeed) error {
	productSlug := slug.Make(item.name)
	var existing models.Product
	err := models.DB.Where("slug = ?", productSlug).First(&existing).Error
	if err == nil {
		logger.Infow("seed_product_exists", "slug", productSlug)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	product := models.Product{
		Slug:        productSlug,
		Name:        item.name,
		Description: item.description,
		Unit:        item.unit,
		SortOrder:   item.sortOrder,
		IsActive:    true,
	}
	return models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		ranges := buildRanges(item.ranges)
		for i := range ranges {
			ranges[i].ProductID = product.ID
		}
		if err := tx.Create(&ranges).Error; err != nil {
			return err
		}
		logger.Infow("seed_product_created", "product_id", product.ID, "slug", productSlug)
		return nil
	})
}

func seedCoupon(item couponSeed) error {
	var existing models.Coupon
	err := models.DB.Where("code = ?", item.code).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	coupon := models.Coupon{
		Code:        item.code,
		Type:        item.kind,
		Value:       models.NewMoneyFromDecimal(decimal.RequireFromString(item.value)),
		MinAmount:   models.NewMoneyFromDecimal(decimalOrZero(item.min)),
		MaxDiscount: models.NewMoneyFromDecimal(decimalOrZero(item.max)),
		IsActive:    true,
	}
	if err := models.DB.Create(&coupon).Error; err != nil {
		return err
	}
	logger.Infow("seed_coupon_created", "code", coupon.Code)
	return nil
}

func buildRanges(seeds []rangeSeed) []models.PriceRange {
	ranges := make([]models.PriceRange, 0, len(seeds))
	for _, item := range seeds {
		row := models.PriceRange{
			FromQty: decimal.RequireFromString(item.from),
			Price:   models.NewMoneyFromDecimal(decimal.RequireFromString(item.price)),
		}
		if item.to != "" {
			row.ToQty = decimal.NewNullDecimal(decimal.RequireFromString(item.to))
		}
		if item.pct != "" {
			row.DiscountPct = decimal.NewNullDecimal(decimal.RequireFromString(item.pct))
		}
		ranges = append(ranges, row)
	}
	return ranges
}

func decimalOrZero(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(raw)
}
