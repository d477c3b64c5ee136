package repository

import (
	"testing"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
)

func TestLoyaltyRepositoryGetOrCreateAccount(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewLoyaltyRepository(db)

	account, err := repo.GetOrCreateAccountForUpdate(5)
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	if account.ID == 0 || account.UserID != 5 {
		t.Fatalf("unexpected account: %+v", account)
	}
	account.AvailablePoints = 125
	account.TotalPoints = 125
	account.LifetimePoints = 125
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("update account failed: %v", err)
	}

	again, err := repo.GetOrCreateAccountForUpdate(5)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again.ID != account.ID || again.AvailablePoints != 125 {
		t.Fatalf("second call should reuse account: %+v", again)
	}

	orderID := uint(1)
	for _, txn := range []models.PointTransaction{
		{UserID: 5, Type: constants.PointTxnTypeEarned, Amount: 125, OrderID: &orderID},
		{UserID: 5, Type: constants.PointTxnTypeRedeemed, Amount: 100},
	} {
		txn := txn
		if err := repo.CreateTransaction(&txn); err != nil {
			t.Fatalf("create transaction failed: %v", err)
		}
	}
	rows, total, err := repo.ListTransactions(PointTransactionListFilter{UserID: 5, Type: constants.PointTxnTypeEarned, Page: 1, PageSize: 10})
	if err != nil || total != 1 || len(rows) != 1 || rows[0].Amount != 125 {
		t.Fatalf("earned filter mismatch total=%d rows=%+v err=%v", total, rows, err)
	}
}
