package repository

import (
	"testing"
	"time"

	"github.com/printroll-next/internal/models"

	"github.com/shopspring/decimal"
)

func createPrintProduct(t *testing.T, repo *GormProductRepository) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:           "dtf-film",
		Name:           "DTF film",
		IsPrintProduct: true,
		IsActive:       true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func priceRange(from string, to string, price string) models.PriceRange {
	row := models.PriceRange{
		FromQty: decimal.RequireFromString(from),
		Price:   models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
	}
	if to != "" {
		row.ToQty = decimal.NewNullDecimal(decimal.RequireFromString(to))
	}
	return row
}

func TestProductRepositoryReplaceRangesRetiresOldRows(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createPrintProduct(t, repo)

	first := []models.PriceRange{priceRange("1", "4", "15"), priceRange("5", "", "12")}
	if err := repo.ReplaceRanges(product.ID, first, time.Now()); err != nil {
		t.Fatalf("replace ranges failed: %v", err)
	}
	oldID := first[0].ID

	second := []models.PriceRange{priceRange("1", "9", "14"), priceRange("10", "", "11")}
	if err := repo.ReplaceRanges(product.ID, second, time.Now()); err != nil {
		t.Fatalf("replace ranges failed: %v", err)
	}

	active, err := repo.ListActiveRanges(product.ID)
	if err != nil {
		t.Fatalf("list active ranges failed: %v", err)
	}
	if len(active) != 2 || !active[0].Price.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("unexpected active ranges: %+v", active)
	}

	var old models.PriceRange
	if err := db.First(&old, oldID).Error; err != nil {
		t.Fatalf("old range should still exist: %v", err)
	}
	if old.RetiredAt == nil || !old.Price.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("old range should be retired and unchanged: %+v", old)
	}

	loaded, err := repo.GetPrintProduct()
	if err != nil || loaded == nil {
		t.Fatalf("get print product failed: %v", err)
	}
	if len(loaded.PriceRanges) != 2 {
		t.Fatalf("print product should preload active ranges only, got %d", len(loaded.PriceRanges))
	}
}

func TestProductRepositoryCountBySlug(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createPrintProduct(t, repo)

	count, err := repo.CountBySlug("dtf-film", 0)
	if err != nil || count != 1 {
		t.Fatalf("count want 1 got %d err=%v", count, err)
	}
	count, err = repo.CountBySlug("dtf-film", product.ID)
	if err != nil || count != 0 {
		t.Fatalf("count excluding self want 0 got %d err=%v", count, err)
	}

	rows, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "DTF", OnlyActive: true, WithRanges: true})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("search mismatch total=%d err=%v", total, err)
	}
}
