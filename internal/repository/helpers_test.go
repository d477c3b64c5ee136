package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestQuote(number, status string, expiresAt time.Time) *models.Quote {
	return &models.Quote{
		QuoteNumber:   number,
		Status:        status,
		CustomerName:  "Lucía Pérez",
		CustomerEmail: "lucia@example.com",
		ExpiresAt:     expiresAt,
	}
}

func createTestVoucher(t *testing.T, db *gorm.DB, code string, meters string, shipments int) *models.Voucher {
	t.Helper()
	m := decimal.RequireFromString(meters)
	voucher := &models.Voucher{
		Code:               code,
		Type:               constants.VoucherTypeMeters,
		UserID:             1,
		InitialMeters:      m,
		RemainingMeters:    m,
		InitialShipments:   shipments,
		RemainingShipments: shipments,
		IsActive:           true,
	}
	if err := db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func decimalFromString(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q failed: %v", raw, err)
	}
	return d
}
