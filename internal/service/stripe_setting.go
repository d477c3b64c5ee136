package service

import (
	"fmt"
	"strings"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/payment/stripe"
)

// StripeSetting Stripe 配置实体（settings 表中的 stripe_config）
type StripeSetting struct {
	Enabled            bool     `json:"enabled"`
	SecretKey          string   `json:"secret_key"`
	PublishableKey     string   `json:"publishable_key"`
	SuccessURL         string   `json:"success_url"`
	CancelURL          string   `json:"cancel_url"`
	APIBaseURL         string   `json:"api_base_url"`
	PaymentMethodTypes []string `json:"payment_method_types"`
	TimeoutSeconds     int      `json:"timeout_seconds"`
}

// StripeDefaultSetting 根据静态配置生成默认 Stripe 设置
func StripeDefaultSetting(cfg config.StripeConfig) StripeSetting {
	return NormalizeStripeSetting(StripeSetting{
		Enabled:            cfg.Enabled,
		SecretKey:          cfg.SecretKey,
		PublishableKey:     cfg.PublishableKey,
		SuccessURL:         cfg.SuccessURL,
		CancelURL:          cfg.CancelURL,
		APIBaseURL:         cfg.APIBaseURL,
		PaymentMethodTypes: cfg.PaymentMethodTypes,
		TimeoutSeconds:     cfg.TimeoutSeconds,
	})
}

// NormalizeStripeSetting 归一化 Stripe 设置
func NormalizeStripeSetting(setting StripeSetting) StripeSetting {
	cfg := setting.ToClientConfig()
	cfg.Normalize()
	setting.SecretKey = cfg.SecretKey
	setting.PublishableKey = cfg.PublishableKey
	setting.SuccessURL = cfg.SuccessURL
	setting.CancelURL = cfg.CancelURL
	setting.APIBaseURL = cfg.APIBaseURL
	setting.PaymentMethodTypes = cfg.PaymentMethodTypes
	setting.TimeoutSeconds = cfg.TimeoutSeconds
	return setting
}

// ValidateStripeSetting 启用时校验网关参数
func ValidateStripeSetting(setting StripeSetting) error {
	if !setting.Enabled {
		return nil
	}
	cfg := setting.ToClientConfig()
	if err := stripe.ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrSettingInvalid, err)
	}
	return nil
}

// ToClientConfig 转换为 Stripe 客户端配置
func (s StripeSetting) ToClientConfig() stripe.Config {
	return stripe.Config{
		SecretKey:          s.SecretKey,
		PublishableKey:     s.PublishableKey,
		SuccessURL:         s.SuccessURL,
		CancelURL:          s.CancelURL,
		APIBaseURL:         s.APIBaseURL,
		PaymentMethodTypes: append([]string(nil), s.PaymentMethodTypes...),
		TimeoutSeconds:     s.TimeoutSeconds,
	}
}

// StripeSettingToMap 转换为 settings 存储结构
func StripeSettingToMap(setting StripeSetting) models.JSON {
	return models.JSON{
		"enabled":              setting.Enabled,
		"secret_key":           setting.SecretKey,
		"publishable_key":      setting.PublishableKey,
		"success_url":          setting.SuccessURL,
		"cancel_url":           setting.CancelURL,
		"api_base_url":         setting.APIBaseURL,
		"payment_method_types": setting.PaymentMethodTypes,
		"timeout_seconds":      setting.TimeoutSeconds,
	}
}

// MaskStripeSettingForAdmin 后台展示时隐藏密钥
func MaskStripeSettingForAdmin(setting StripeSetting) models.JSON {
	masked := StripeSettingToMap(setting)
	delete(masked, "secret_key")
	masked["secret_key_set"] = setting.SecretKey != ""
	return masked
}

func stripeSettingFromJSON(raw models.JSON, fallback StripeSetting) StripeSetting {
	next := fallback
	if raw == nil {
		return next
	}
	next.Enabled = readBool(raw, "enabled", next.Enabled)
	if secret := readString(raw, "secret_key", ""); secret != "" {
		next.SecretKey = secret
	}
	next.PublishableKey = readString(raw, "publishable_key", next.PublishableKey)
	next.SuccessURL = readString(raw, "success_url", next.SuccessURL)
	next.CancelURL = readString(raw, "cancel_url", next.CancelURL)
	next.APIBaseURL = readString(raw, "api_base_url", next.APIBaseURL)
	next.TimeoutSeconds = readInt(raw, "timeout_seconds", next.TimeoutSeconds)
	if types := readStringSlice(raw, "payment_method_types"); len(types) > 0 {
		next.PaymentMethodTypes = types
	}
	return next
}

func readStringSlice(source map[string]interface{}, key string) []string {
	value, ok := source[key]
	if !ok {
		return nil
	}
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case string:
		items = strings.Split(v, ",")
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
