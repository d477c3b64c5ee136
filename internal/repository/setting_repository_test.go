package repository

import (
	"testing"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
)

func TestSettingUpsertOverwrites(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewSettingRepository(db)

	missing, err := repo.GetByKey(constants.SettingKeyPricingConfig)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown key, got %+v err=%v", missing, err)
	}

	if _, err := repo.Upsert(constants.SettingKeyPricingConfig, models.JSON{"shipping_standard": "5.00"}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := repo.Upsert(constants.SettingKeyPricingConfig, models.JSON{"shipping_standard": "6.50"}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Setting{}).Count(&count).Error; err != nil {
		t.Fatalf("count settings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert should keep a single row, got %d", count)
	}
	stored, err := repo.GetByKey(constants.SettingKeyPricingConfig)
	if err != nil || stored == nil {
		t.Fatalf("reload setting failed: %v", err)
	}
	if stored.ValueJSON["shipping_standard"] != "6.50" {
		t.Fatalf("expected overwritten value, got %v", stored.ValueJSON)
	}

	rows, err := repo.ListByKeys([]string{constants.SettingKeySMTPConfig, constants.SettingKeyPricingConfig})
	if err != nil {
		t.Fatalf("list by keys failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != constants.SettingKeyPricingConfig {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestAdminRepositoryLookup(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewAdminRepository(db)

	for _, admin := range []*models.Admin{
		{Username: "Root", PasswordHash: "hash", IsSuper: true},
		{Username: "operator", PasswordHash: "hash"},
	} {
		if err := repo.Create(admin); err != nil {
			t.Fatalf("create admin failed: %v", err)
		}
	}

	found, err := repo.GetByUsername(" ROOT ")
	if err != nil || found == nil || !found.IsSuper {
		t.Fatalf("expected case-insensitive match, got %+v err=%v", found, err)
	}
	if none, err := repo.GetByUsername(""); err != nil || none != nil {
		t.Fatalf("blank username should not match, got %+v err=%v", none, err)
	}
	supers, err := repo.CountSuper()
	if err != nil || supers != 1 {
		t.Fatalf("expected one super admin, got %d err=%v", supers, err)
	}
	list, err := repo.List()
	if err != nil || len(list) != 2 || !list[0].IsSuper {
		t.Fatalf("expected super admin listed first, got %+v err=%v", list, err)
	}
	if list[0].PasswordHash != "" {
		t.Fatalf("list should not load password hash")
	}
}
