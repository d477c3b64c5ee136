package service

import (
	"strings"
	"unicode/utf8"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/i18n"
	"github.com/printroll-next/internal/models"
)

const (
	settingSiteNameMaxRuneSize   = 120
	settingSiteNoticeMaxRuneSize = 2000
)

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库；current 为库中已有值，用于保留未提交的密钥
func (s *SettingService) normalizeSettingValueByKey(key string, value map[string]interface{}, current models.JSON) (models.JSON, error) {
	switch key {
	case constants.SettingKeySiteConfig:
		return normalizeSiteSetting(value), nil
	case constants.SettingKeyPricingConfig:
		setting := normalizePricingSettings(pricingSettingsFromJSON(models.JSON(value), s.defaults.pricing))
		if err := ValidatePricingSettings(setting); err != nil {
			return nil, err
		}
		return PricingSettingsToMap(setting), nil
	case constants.SettingKeySMTPConfig:
		base := smtpSettingFromJSON(current, s.defaults.smtp)
		setting := NormalizeSMTPSetting(smtpSettingFromJSON(models.JSON(value), base))
		if err := ValidateSMTPSetting(setting); err != nil {
			return nil, err
		}
		return SMTPSettingToMap(setting), nil
	case constants.SettingKeyStripeConfig:
		base := stripeSettingFromJSON(current, s.defaults.stripe)
		setting := NormalizeStripeSetting(stripeSettingFromJSON(models.JSON(value), base))
		if err := ValidateStripeSetting(setting); err != nil {
			return nil, err
		}
		return StripeSettingToMap(setting), nil
	default:
		return models.JSON(value), nil
	}
}

// normalizeSiteSetting 归一化站点配置结构
func normalizeSiteSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value)+5)
	for key, raw := range value {
		normalized[key] = raw
	}

	normalized["site_name"] = normalizeSettingTextWithRuneLimit(value["site_name"], settingSiteNameMaxRuneSize)
	normalized["notice"] = normalizeSettingTextWithRuneLimit(value["notice"], settingSiteNoticeMaxRuneSize)
	normalized["contact"] = normalizeSiteContact(value["contact"])

	currency := strings.ToUpper(normalizeSettingText(value[constants.SettingFieldSiteCurrency]))
	if len(currency) != 3 {
		currency = constants.SiteCurrencyDefault
	}
	normalized[constants.SettingFieldSiteCurrency] = currency

	if raw, ok := value["languages"]; ok {
		normalized["languages"] = normalizeSiteLanguages(raw)
	}
	return normalized
}

func normalizeSiteContact(raw interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"email":    "",
		"phone":    "",
		"whatsapp": "",
	}
	contactMap, ok := raw.(map[string]interface{})
	if !ok {
		return result
	}
	for key := range result {
		result[key] = normalizeSettingText(contactMap[key])
	}
	return result
}

func normalizeSiteLanguages(raw interface{}) []string {
	items := readStringSlice(map[string]interface{}{"v": raw}, "v")
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		locale := i18n.NormalizeLocale(item)
		if seen[locale] {
			continue
		}
		seen[locale] = true
		result = append(result, locale)
	}
	if len(result) == 0 {
		result = append(result, i18n.DefaultLocale)
	}
	return result
}

func normalizeSettingText(raw interface{}) string {
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func normalizeSettingTextWithRuneLimit(raw interface{}, maxRuneCount int) string {
	value := normalizeSettingText(raw)
	if maxRuneCount <= 0 || utf8.RuneCountInString(value) <= maxRuneCount {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxRuneCount])
}
