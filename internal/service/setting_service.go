package service

import (
	"context"
	"time"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"
)

type settingDefaults struct {
	pricing PricingSettings
	smtp    SMTPSetting
	stripe  StripeSetting
}

// SettingService 设置业务服务
type SettingService struct {
	repo     repository.SettingRepository
	provider *ConfigProvider
	defaults settingDefaults
}

// NewSettingService 创建设置服务；写入后通过 provider 清除运行时缓存
func NewSettingService(repo repository.SettingRepository, provider *ConfigProvider, cfg *config.Config) *SettingService {
	defaults := settingDefaults{
		pricing: PricingDefaultSetting(config.PricingConfig{}),
		smtp:    NormalizeSMTPSetting(SMTPSetting{}),
		stripe:  NormalizeStripeSetting(StripeSetting{}),
	}
	if cfg != nil {
		defaults.pricing = PricingDefaultSetting(cfg.Pricing)
		defaults.smtp = SMTPDefaultSetting(cfg.Email)
		defaults.stripe = StripeDefaultSetting(cfg.Payment.Stripe)
	}
	return &SettingService{repo: repo, provider: provider, defaults: defaults}
}

// GetConfig 获取站点配置（合并默认值）
func (s *SettingService) GetConfig(defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// SettingOverview 设置键是否已在后台覆盖默认值
type SettingOverview struct {
	Key        string     `json:"key"`
	Overridden bool       `json:"overridden"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// Overview 按给定顺序列出设置键的覆盖状态
func (s *SettingService) Overview(keys []string) ([]SettingOverview, error) {
	stored, err := s.repo.ListByKeys(keys)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]models.Setting, len(stored))
	for _, item := range stored {
		byKey[item.Key] = item
	}
	result := make([]SettingOverview, 0, len(keys))
	for _, key := range keys {
		row := SettingOverview{Key: key}
		if item, ok := byKey[key]; ok {
			updatedAt := item.UpdatedAt
			row.Overridden = true
			row.UpdatedAt = &updatedAt
		}
		result = append(result, row)
	}
	return result, nil
}

// GetByKey 获取设置，敏感字段按键脱敏
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	var raw models.JSON
	if setting != nil {
		raw = setting.ValueJSON
	}
	switch key {
	case constants.SettingKeyPricingConfig:
		return PricingSettingsToMap(normalizePricingSettings(pricingSettingsFromJSON(raw, s.defaults.pricing))), nil
	case constants.SettingKeySMTPConfig:
		return MaskSMTPSettingForAdmin(NormalizeSMTPSetting(smtpSettingFromJSON(raw, s.defaults.smtp))), nil
	case constants.SettingKeyStripeConfig:
		return MaskStripeSettingForAdmin(NormalizeStripeSetting(stripeSettingFromJSON(raw, s.defaults.stripe))), nil
	default:
		return raw, nil
	}
}

// Update 设置值
func (s *SettingService) Update(ctx context.Context, key string, value map[string]interface{}) (models.JSON, error) {
	var current models.JSON
	existing, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		current = existing.ValueJSON
	}

	normalized, err := s.normalizeSettingValueByKey(key, value, current)
	if err != nil {
		return nil, err
	}

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	s.provider.Invalidate(ctx, key)
	return setting.ValueJSON, nil
}

// GetSiteCurrency 获取站点币种
func (s *SettingService) GetSiteCurrency(defaultValue string) string {
	if s == nil {
		return defaultValue
	}
	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil || setting == nil {
		return defaultValue
	}
	currency := readString(setting.ValueJSON, constants.SettingFieldSiteCurrency, "")
	if len(currency) != 3 {
		return defaultValue
	}
	return currency
}
