package repository

import (
	"testing"
	"time"

	"github.com/printroll-next/internal/models"
)

func TestVoucherRepositoryDebitDecrementsAndDeactivates(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherRepository(db)
	voucher := createTestVoucher(t, db, "PR-METERS-10", "10", 1)

	ok, err := repo.Debit(voucher.ID, decimalFromString(t, "6"), 1)
	if err != nil || !ok {
		t.Fatalf("first debit should apply, ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(voucher.ID)
	if !got.RemainingMeters.Equal(decimalFromString(t, "4")) {
		t.Fatalf("remaining meters want 4 got %s", got.RemainingMeters)
	}
	if got.RemainingShipments != 0 || got.UsageCount != 1 || !got.IsActive {
		t.Fatalf("unexpected voucher after first debit: %+v", got)
	}

	ok, err = repo.Debit(voucher.ID, decimalFromString(t, "5"), 0)
	if err != nil {
		t.Fatalf("overdraft debit returned error: %v", err)
	}
	if ok {
		t.Fatalf("overdraft debit must not apply")
	}

	ok, err = repo.Debit(voucher.ID, decimalFromString(t, "4"), 0)
	if err != nil || !ok {
		t.Fatalf("final debit should apply, ok=%v err=%v", ok, err)
	}
	got, _ = repo.GetByID(voucher.ID)
	if !got.RemainingMeters.IsZero() || got.IsActive || got.UsageCount != 2 {
		t.Fatalf("voucher should be exhausted and inactive: %+v", got)
	}

	ok, _ = repo.Debit(voucher.ID, decimalFromString(t, "0"), 0)
	if ok {
		t.Fatalf("inactive voucher must reject debit")
	}
}

func TestVoucherRepositoryListUsableByUser(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherRepository(db)
	active := createTestVoucher(t, db, "PR-ACTIVE", "5", 0)
	expired := createTestVoucher(t, db, "PR-EXPIRED", "5", 0)
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	if err := repo.Update(expired); err != nil {
		t.Fatalf("update voucher failed: %v", err)
	}

	rows, err := repo.ListUsableByUser(1, time.Now())
	if err != nil {
		t.Fatalf("list usable failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != active.ID {
		t.Fatalf("unexpected usable vouchers: %+v", rows)
	}

	byCode, _ := repo.GetByCode(" pr-active ")
	if byCode == nil || byCode.ID != active.ID {
		t.Fatalf("code lookup should be case-insensitive")
	}

	orderID := uint(9)
	if err := repo.CreateRedemption(&models.VoucherRedemption{VoucherID: active.ID, OrderID: &orderID, Meters: decimalFromString(t, "2")}); err != nil {
		t.Fatalf("create redemption failed: %v", err)
	}
	redemptions, err := repo.ListRedemptions(active.ID)
	if err != nil || len(redemptions) != 1 {
		t.Fatalf("redemptions mismatch, err=%v rows=%+v", err, redemptions)
	}
}

func TestVoucherRepositoryQuoteHoldLifecycle(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewVoucherRepository(db)
	voucher := createTestVoucher(t, db, "PR-HOLD-3", "3", 0)

	if ok, err := repo.Debit(voucher.ID, decimalFromString(t, "3"), 0); err != nil || !ok {
		t.Fatalf("debit should apply, ok=%v err=%v", ok, err)
	}
	quoteID := uint(41)
	hold := &models.VoucherRedemption{VoucherID: voucher.ID, QuoteID: &quoteID, Meters: decimalFromString(t, "3")}
	if err := repo.CreateRedemption(hold); err != nil {
		t.Fatalf("create redemption failed: %v", err)
	}

	found, err := repo.GetOpenQuoteHold(quoteID)
	if err != nil || found == nil || found.ID != hold.ID {
		t.Fatalf("open hold not found: %+v err=%v", found, err)
	}
	if ok, err := repo.Credit(voucher.ID, decimalFromString(t, "4"), 0); err != nil || ok {
		t.Fatalf("credit above initial balance must not apply, ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkReleased(hold.ID, time.Now()); err != nil || !ok {
		t.Fatalf("mark released should apply, ok=%v err=%v", ok, err)
	}
	if ok, _ := repo.MarkReleased(hold.ID, time.Now()); ok {
		t.Fatalf("hold must be released only once")
	}
	if ok, err := repo.Credit(voucher.ID, decimalFromString(t, "3"), 0); err != nil || !ok {
		t.Fatalf("credit should apply, ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(voucher.ID)
	if !got.RemainingMeters.Equal(decimalFromString(t, "3")) || !got.IsActive || got.UsageCount != 0 {
		t.Fatalf("voucher should be restored and active: %+v", got)
	}
	if open, _ := repo.GetOpenQuoteHold(quoteID); open != nil {
		t.Fatalf("released hold must not be open: %+v", open)
	}
	if ok, _ := repo.AttachOrder(hold.ID, 9); ok {
		t.Fatalf("released hold must not be attached to an order")
	}
}
