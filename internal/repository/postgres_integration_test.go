//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	_ = db.Migrator().DropTable(models.AllModels()...)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(models.AllModels()...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresBindOrderRace(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewQuoteRepository(db)

	quote := newTestQuote("Q-2026-0001", constants.QuoteStatusPaid, time.Now().Add(24*time.Hour))
	if err := repo.Create(quote); err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	const workers = 8
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				locked, err := repo.WithTx(tx).GetByIDForUpdate(quote.ID)
				if err != nil || locked == nil || locked.IsConverted() {
					return err
				}
				ok, err := repo.WithTx(tx).BindOrder(quote.ID, orderID, time.Now())
				if err != nil {
					return err
				}
				if ok {
					atomic.AddInt32(&wins, 1)
				}
				return nil
			})
			if err != nil {
				t.Errorf("bind transaction failed: %v", err)
			}
		}(uint(1000 + i))
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("exactly one binder should win, got %d", wins)
	}
	got, err := repo.GetByID(quote.ID)
	if err != nil || got == nil {
		t.Fatalf("reload quote failed: %v", err)
	}
	if got.Status != constants.QuoteStatusConverted || !got.IsConverted() {
		t.Fatalf("quote should be converted: %+v", got)
	}
}

func TestPostgresVoucherDebitNeverOverdraws(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewVoucherRepository(db)
	voucher := createTestVoucher(t, db, "PG-METERS", "10", 0)

	const workers = 6
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Debit(voucher.ID, decimal.NewFromInt(3), 0)
			if err != nil {
				t.Errorf("debit failed: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 3 {
		t.Fatalf("want 3 successful debits of 3m out of 10m, got %d", wins)
	}
	got, err := repo.GetByID(voucher.ID)
	if err != nil || got == nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if !got.RemainingMeters.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("remaining meters want 1 got %s", got.RemainingMeters)
	}
	if got.UsageCount != 3 {
		t.Fatalf("usage count want 3 got %d", got.UsageCount)
	}
}

func TestPostgresQuoteKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewQuoteRepository(db)

	quote := newTestQuote("Q-2026-0042", constants.QuoteStatusPendingReview, time.Now().Add(24*time.Hour))
	quote.CompanyName = "Serigrafía Norte"
	if err := repo.Create(quote); err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	rows, total, err := repo.List(QuoteListFilter{Page: 1, PageSize: 20, Keyword: "serigrafía"})
	if err != nil {
		t.Fatalf("quote list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("want 1 quote got total=%d len=%d", total, len(rows))
	}
}
