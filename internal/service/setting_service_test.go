package service

import (
	"testing"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
)

func TestSettingOverviewKeepsKeyOrder(t *testing.T) {
	repo := newMockSettingRepo()
	repo.store[constants.SettingKeySMTPConfig] = models.JSON{"host": "smtp.example.com"}
	svc := NewSettingService(repo, nil, nil)

	keys := []string{constants.SettingKeyPricingConfig, constants.SettingKeySMTPConfig}
	items, err := svc.Overview(keys)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	if items[0].Key != constants.SettingKeyPricingConfig || items[0].Overridden || items[0].UpdatedAt != nil {
		t.Fatalf("pricing should fall back to defaults: %+v", items[0])
	}
	if items[1].Key != constants.SettingKeySMTPConfig || !items[1].Overridden {
		t.Fatalf("smtp should be overridden: %+v", items[1])
	}
}
