package service

import (
	"context"
	"errors"
	"testing"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/i18n"
)

func newTestSettingService(repo *mockSettingRepo) *SettingService {
	cfg := &config.Config{}
	return NewSettingService(repo, NewConfigProvider(repo, nil, cfg), cfg)
}

func TestUpdateSiteSettingNormalized(t *testing.T) {
	repo := newMockSettingRepo()
	svc := newTestSettingService(repo)

	result, err := svc.Update(context.Background(), constants.SettingKeySiteConfig, map[string]interface{}{
		"site_name": "  PrintRoll  ",
		"currency":  "usd",
		"contact": map[string]interface{}{
			"email":    "  hola@printroll.es ",
			"whatsapp": 123,
		},
		"languages": []interface{}{"en", "es-ES", "en-GB", ""},
		"extra":     "keep",
	})
	if err != nil {
		t.Fatalf("update site config failed: %v", err)
	}
	if result["site_name"] != "PrintRoll" {
		t.Fatalf("unexpected site_name: %v", result["site_name"])
	}
	if result["currency"] != "USD" {
		t.Fatalf("unexpected currency: %v", result["currency"])
	}
	contact, ok := result["contact"].(map[string]interface{})
	if !ok {
		t.Fatalf("contact should be a map: %T", result["contact"])
	}
	if contact["email"] != "hola@printroll.es" || contact["whatsapp"] != "" {
		t.Fatalf("unexpected contact: %v", contact)
	}
	languages, ok := result["languages"].([]string)
	if !ok || len(languages) != 2 || languages[0] != i18n.LocaleEN || languages[1] != i18n.LocaleES {
		t.Fatalf("unexpected languages: %v", result["languages"])
	}
	if result["extra"] != "keep" {
		t.Fatalf("unexpected extra field: %v", result["extra"])
	}
}

func TestUpdateSiteSettingInvalidCurrencyFallsBack(t *testing.T) {
	svc := newTestSettingService(newMockSettingRepo())
	result, err := svc.Update(context.Background(), constants.SettingKeySiteConfig, map[string]interface{}{
		"currency": "euros",
	})
	if err != nil {
		t.Fatalf("update site config failed: %v", err)
	}
	if result["currency"] != constants.SiteCurrencyDefault {
		t.Fatalf("unexpected currency: %v", result["currency"])
	}
	if svc.GetSiteCurrency("XXX") != constants.SiteCurrencyDefault {
		t.Fatalf("site currency should be read back")
	}
}

func TestUpdatePricingSettingRejectsInvalidValues(t *testing.T) {
	repo := newMockSettingRepo()
	svc := newTestSettingService(repo)

	_, err := svc.Update(context.Background(), constants.SettingKeyPricingConfig, map[string]interface{}{
		"tax_rate": "1.5",
	})
	if !errors.Is(err, ErrSettingInvalid) {
		t.Fatalf("expected invalid setting, got %v", err)
	}
	_, err = svc.Update(context.Background(), constants.SettingKeyPricingConfig, map[string]interface{}{
		"extras_policy_version": "v9",
	})
	if !errors.Is(err, ErrSettingInvalid) {
		t.Fatalf("expected invalid policy version, got %v", err)
	}
	if _, ok := repo.store[constants.SettingKeyPricingConfig]; ok {
		t.Fatalf("invalid pricing config should not be stored")
	}

	saved, err := svc.Update(context.Background(), constants.SettingKeyPricingConfig, map[string]interface{}{
		"tax_rate":              0.1,
		"extras_policy_version": constants.ExtrasPolicyLegacyTable,
	})
	if err != nil {
		t.Fatalf("update pricing failed: %v", err)
	}
	if saved["tax_rate"] != "0.1" || saved["extras_policy_version"] != constants.ExtrasPolicyLegacyTable {
		t.Fatalf("unexpected pricing config: %v", saved)
	}
}

func TestUpdateStripeSettingValidatesWhenEnabled(t *testing.T) {
	repo := newMockSettingRepo()
	svc := newTestSettingService(repo)

	_, err := svc.Update(context.Background(), constants.SettingKeyStripeConfig, map[string]interface{}{
		"enabled": true,
	})
	if !errors.Is(err, ErrSettingInvalid) {
		t.Fatalf("expected invalid stripe setting, got %v", err)
	}

	_, err = svc.Update(context.Background(), constants.SettingKeyStripeConfig, map[string]interface{}{
		"enabled":     true,
		"secret_key":  "sk_test_1",
		"success_url": "https://shop.example.com/ok",
		"cancel_url":  "https://shop.example.com/cancel",
	})
	if err != nil {
		t.Fatalf("update stripe failed: %v", err)
	}
	masked, err := svc.GetByKey(constants.SettingKeyStripeConfig)
	if err != nil {
		t.Fatalf("get stripe failed: %v", err)
	}
	if _, ok := masked["secret_key"]; ok || masked["secret_key_set"] != true {
		t.Fatalf("secret key should be masked: %v", masked)
	}
}
