package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB, *models.Product) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.PriceRange{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	svc := NewProductService(repository.NewProductRepository(db), nil, fake)
	return svc, db, seedPrintProduct(t, db)
}

func decimalPtr(raw string) *decimal.Decimal {
	value := decimal.RequireFromString(raw)
	return &value
}

func TestProductCreateGeneratesSlug(t *testing.T) {
	svc, _, _ := setupProductServiceTest(t)

	created, err := svc.Create(CreateProductInput{Name: "Vinilo Textil Glitter"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if created.Slug != "vinilo-textil-glitter" || created.Unit != "meter" || !created.IsActive {
		t.Fatalf("unexpected product: %+v", created)
	}

	if _, err := svc.Create(CreateProductInput{Name: "DTF Film"}); !errors.Is(err, ErrProductSlugConflict) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
	if _, err := svc.Create(CreateProductInput{Name: "   "}); !errors.Is(err, ErrProductInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	inactive := false
	updated, err := svc.Update(created.ID, CreateProductInput{Name: "Glitter", Slug: "Glitter Roll", IsActive: &inactive})
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	if updated.Slug != "glitter-roll" || updated.IsActive {
		t.Fatalf("unexpected updated product: %+v", updated)
	}
	if _, err := svc.GetPublicBySlug("glitter-roll"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product must be hidden, got %v", err)
	}
}

func TestProductReplaceRangesRetiresOldRows(t *testing.T) {
	svc, db, product := setupProductServiceTest(t)

	if _, err := svc.ReplaceRanges(product.ID, []PriceRangeInput{
		{FromQty: decimal.NewFromInt(1), ToQty: decimalPtr("10"), Price: decimal.NewFromInt(14)},
		{FromQty: decimal.NewFromInt(10), Price: decimal.NewFromInt(11)},
	}); !errors.Is(err, pricing.ErrOverlappingRanges) {
		t.Fatalf("expected overlapping ranges, got %v", err)
	}

	active, err := svc.ReplaceRanges(product.ID, []PriceRangeInput{
		{FromQty: decimal.NewFromInt(1), ToQty: decimalPtr("9.99"), Price: decimal.NewFromInt(14)},
		{FromQty: decimal.NewFromInt(10), Price: decimal.NewFromInt(11), DiscountPct: decimalPtr("5")},
	})
	if err != nil {
		t.Fatalf("replace ranges failed: %v", err)
	}
	if len(active) != 2 || active[1].Price.String() != "11.00" {
		t.Fatalf("unexpected active ranges: %+v", active)
	}

	var retired int64
	db.Model(&models.PriceRange{}).Where("product_id = ? AND retired_at IS NOT NULL", product.ID).Count(&retired)
	if retired != 4 {
		t.Fatalf("old ranges should be retired, got %d", retired)
	}
}

func TestProductPreviewPrice(t *testing.T) {
	svc, _, _ := setupProductServiceTest(t)

	preview, err := svc.PreviewPrice(context.Background(), "dtf-film", decimal.NewFromInt(10), pricing.Selection{
		Priority: true,
		Layout:   true,
		Cutting:  true,
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	// 10 米 × 12 = 120；加急 33 + 排版 10 + 裁切 10
	if preview.Subtotal.String() != "120.00" || preview.ExtrasAmount.String() != "53.00" || preview.Total.String() != "173.00" {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	if _, err := svc.PreviewPrice(context.Background(), "dtf-film", decimal.Zero, pricing.Selection{}); !errors.Is(err, pricing.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.PreviewPrice(context.Background(), "missing", decimal.NewFromInt(1), pricing.Selection{}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductDeleteKeepsPrintProduct(t *testing.T) {
	svc, _, product := setupProductServiceTest(t)
	if err := svc.Delete(product.ID); !errors.Is(err, ErrProductInvalidInput) {
		t.Fatalf("print product delete should be rejected, got %v", err)
	}
	other, err := svc.Create(CreateProductInput{Name: "Sample Pack", Unit: "piece"})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := svc.Delete(other.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetAdminByID(other.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("deleted product should be gone, got %v", err)
	}
}
