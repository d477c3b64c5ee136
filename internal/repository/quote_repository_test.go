package repository

import (
	"testing"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
)

func TestQuoteRepositoryNextSequence(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewQuoteRepository(db)
	expires := time.Now().Add(24 * time.Hour)

	seq, err := repo.NextSequence("Q", 2026)
	if err != nil {
		t.Fatalf("next sequence failed: %v", err)
	}
	if seq != 1 {
		t.Fatalf("first sequence want 1 got %d", seq)
	}

	for _, number := range []string{"Q-2026-0009", "Q-2026-0010", "Q-2025-0042"} {
		if err := repo.Create(newTestQuote(number, constants.QuoteStatusPendingReview, expires)); err != nil {
			t.Fatalf("create quote %s failed: %v", number, err)
		}
	}
	seq, err = repo.NextSequence("Q", 2026)
	if err != nil {
		t.Fatalf("next sequence failed: %v", err)
	}
	if seq != 11 {
		t.Fatalf("sequence want 11 got %d", seq)
	}

	// 软删除的记录仍占用号码
	deleted, _ := repo.GetByNumber("Q-2026-0010")
	if err := db.Delete(deleted).Error; err != nil {
		t.Fatalf("delete quote failed: %v", err)
	}
	seq, err = repo.NextSequence("Q", 2026)
	if err != nil {
		t.Fatalf("next sequence failed: %v", err)
	}
	if seq != 11 {
		t.Fatalf("sequence after soft delete want 11 got %d", seq)
	}
}

func TestQuoteRepositoryTransitionStatusGuard(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewQuoteRepository(db)
	quote := newTestQuote("Q-2026-0001", constants.QuoteStatusQuoted, time.Now().Add(time.Hour))
	if err := repo.Create(quote); err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	ok, err := repo.TransitionStatus(quote.ID, []string{constants.QuoteStatusPendingReview}, constants.QuoteStatusQuoted, nil)
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if ok {
		t.Fatalf("transition from wrong status should not apply")
	}

	ok, err = repo.TransitionStatus(quote.ID, []string{constants.QuoteStatusQuoted}, constants.QuoteStatusPaymentSent, map[string]interface{}{
		"payment_reference": "cs_test_1",
	})
	if err != nil || !ok {
		t.Fatalf("transition should apply, ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByPaymentReference("cs_test_1")
	if got == nil || got.Status != constants.QuoteStatusPaymentSent {
		t.Fatalf("unexpected quote after transition: %+v", got)
	}
}

func TestQuoteRepositoryBindOrderOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewQuoteRepository(db)
	quote := newTestQuote("Q-2026-0002", constants.QuoteStatusPaid, time.Now().Add(time.Hour))
	if err := repo.Create(quote); err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	now := time.Now()
	ok, err := repo.BindOrder(quote.ID, 10, now)
	if err != nil || !ok {
		t.Fatalf("first bind should succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.BindOrder(quote.ID, 11, now)
	if err != nil {
		t.Fatalf("second bind returned error: %v", err)
	}
	if ok {
		t.Fatalf("second bind must not overwrite order id")
	}

	got, _ := repo.GetByID(quote.ID)
	if got.OrderID == nil || *got.OrderID != 10 {
		t.Fatalf("order id want 10 got %v", got.OrderID)
	}
	if got.Status != constants.QuoteStatusConverted || got.ConvertedAt == nil {
		t.Fatalf("quote should be converted: %+v", got)
	}
}

func TestQuoteRepositoryExpireDueSkipsPaid(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewQuoteRepository(db)
	past := time.Now().Add(-time.Hour)

	due := newTestQuote("Q-2026-0003", constants.QuoteStatusQuoted, past)
	paid := newTestQuote("Q-2026-0004", constants.QuoteStatusPaid, past)
	future := newTestQuote("Q-2026-0005", constants.QuoteStatusPendingReview, time.Now().Add(time.Hour))
	for _, q := range []*models.Quote{due, paid, future} {
		if err := repo.Create(q); err != nil {
			t.Fatalf("create quote failed: %v", err)
		}
	}

	now := time.Now()
	candidates, err := repo.ListExpirable(now, 10)
	if err != nil {
		t.Fatalf("list expirable failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != due.ID {
		t.Fatalf("unexpected expirable quotes: %+v", candidates)
	}

	// 扫描期间被人工标记为已支付的报价单不受影响
	affected, err := repo.ExpireDue([]uint{due.ID, paid.ID, future.ID}, now)
	if err != nil {
		t.Fatalf("expire due failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected want 1 got %d", affected)
	}
	gotPaid, _ := repo.GetByID(paid.ID)
	if gotPaid.Status != constants.QuoteStatusPaid {
		t.Fatalf("paid quote must stay paid, got %s", gotPaid.Status)
	}

	counts, err := repo.CountByStatus()
	if err != nil {
		t.Fatalf("count by status failed: %v", err)
	}
	if counts[constants.QuoteStatusExpired] != 1 || counts[constants.QuoteStatusPaid] != 1 {
		t.Fatalf("unexpected status counts: %+v", counts)
	}
}

func TestQuoteRepositoryListKeyword(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewQuoteRepository(db)
	a := newTestQuote("Q-2026-0006", constants.QuoteStatusPendingReview, time.Now().Add(time.Hour))
	b := newTestQuote("Q-2026-0007", constants.QuoteStatusPendingReview, time.Now().Add(time.Hour))
	b.CustomerEmail = "taller@example.com"
	b.CompanyName = "Taller Gráfico SL"
	for _, q := range []*models.Quote{a, b} {
		if err := repo.Create(q); err != nil {
			t.Fatalf("create quote failed: %v", err)
		}
	}

	rows, total, err := repo.List(QuoteListFilter{Page: 1, PageSize: 10, Keyword: "taller"})
	if err != nil {
		t.Fatalf("list quotes failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("keyword filter mismatch: total=%d rows=%+v", total, rows)
	}
}
