package service

import (
	"context"
	"testing"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
)

type mockSettingRepo struct {
	store map[string]models.JSON
	reads int
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	m.reads++
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) ListByKeys(keys []string) ([]models.Setting, error) {
	result := make([]models.Setting, 0, len(keys))
	for _, key := range keys {
		if value, ok := m.store[key]; ok {
			result = append(result, models.Setting{Key: key, ValueJSON: value})
		}
	}
	return result, nil
}

func TestNormalizeSMTPSetting(t *testing.T) {
	setting := NormalizeSMTPSetting(SMTPSetting{Port: 70000, UseTLS: true, UseSSL: true, Host: " smtp.example.com "})
	if setting.Port != 587 {
		t.Fatalf("expected default port 587, got %d", setting.Port)
	}
	if setting.UseTLS {
		t.Fatalf("ssl should disable starttls")
	}
	if setting.Host != "smtp.example.com" {
		t.Fatalf("host should be trimmed, got %q", setting.Host)
	}
}

func TestValidateSMTPSetting(t *testing.T) {
	if err := ValidateSMTPSetting(SMTPSetting{Enabled: false}); err != nil {
		t.Fatalf("disabled setting should pass: %v", err)
	}
	invalid := NormalizeSMTPSetting(SMTPSetting{Enabled: true, Host: "smtp.example.com", From: "not-an-address"})
	if err := ValidateSMTPSetting(invalid); err == nil {
		t.Fatal("expected invalid from address error")
	}
	valid := NormalizeSMTPSetting(SMTPSetting{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     587,
		From:     "notify@example.com",
		UseTLS:   true,
		Password: "secret",
	})
	if err := ValidateSMTPSetting(valid); err != nil {
		t.Fatalf("expected valid smtp config, got error: %v", err)
	}
}

func TestUpdateSMTPSettingKeepsPasswordWhenEmpty(t *testing.T) {
	repo := newMockSettingRepo()
	cfg := &config.Config{Email: config.EmailConfig{
		Enabled:  true,
		Host:     "smtp.default.com",
		Port:     587,
		Username: "default-user",
		Password: "default-secret",
		From:     "default@example.com",
		FromName: "Default",
		UseTLS:   true,
	}}
	svc := NewSettingService(repo, NewConfigProvider(repo, nil, cfg), cfg)

	updated, err := svc.Update(context.Background(), constants.SettingKeySMTPConfig, map[string]interface{}{
		"enabled":  true,
		"host":     "smtp.custom.com",
		"password": "",
	})
	if err != nil {
		t.Fatalf("update smtp setting failed: %v", err)
	}
	if updated["password"] != "default-secret" {
		t.Fatalf("expected password keep default-secret, got %v", updated["password"])
	}
	if updated["host"] != "smtp.custom.com" {
		t.Fatalf("unexpected host: %v", updated["host"])
	}

	masked, err := svc.GetByKey(constants.SettingKeySMTPConfig)
	if err != nil {
		t.Fatalf("get smtp setting failed: %v", err)
	}
	if _, ok := masked["password"]; ok {
		t.Fatalf("password should be masked: %v", masked)
	}
	if masked["password_set"] != true {
		t.Fatalf("expected password_set true, got %v", masked["password_set"])
	}
}
