package service

import (
	"fmt"
	"strings"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"

	"github.com/shopspring/decimal"
)

// PricingSettings 运行时定价参数（配置文件默认值叠加 pricing_config 设置）
type PricingSettings struct {
	Currency              string          `json:"currency"`
	TaxRate               decimal.Decimal `json:"tax_rate"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	ShippingBaseCost      decimal.Decimal `json:"shipping_base_cost"`
	ExpressShippingCost   decimal.Decimal `json:"express_shipping_cost"`
	PointsPerCurrencyUnit decimal.Decimal `json:"points_per_currency_unit"`
	ExtrasPolicyVersion   string          `json:"extras_policy_version"`
}

// PricingDefaultSetting 根据静态配置生成默认定价参数
func PricingDefaultSetting(cfg config.PricingConfig) PricingSettings {
	return normalizePricingSettings(PricingSettings{
		Currency:              cfg.Currency,
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		ShippingBaseCost:      decimal.NewFromFloat(cfg.ShippingBaseCost),
		ExpressShippingCost:   decimal.NewFromFloat(cfg.ExpressShippingCost),
		PointsPerCurrencyUnit: decimal.NewFromFloat(cfg.PointsPerCurrencyUnit),
		ExtrasPolicyVersion:   cfg.ExtrasPolicyVersion,
	})
}

func normalizePricingSettings(s PricingSettings) PricingSettings {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = constants.SiteCurrencyDefault
	}
	if s.TaxRate.IsNegative() {
		s.TaxRate = pricing.DefaultTaxRate
	}
	if s.FreeShippingThreshold.IsNegative() {
		s.FreeShippingThreshold = pricing.DefaultFreeShippingThreshold
	}
	if s.ShippingBaseCost.IsNegative() {
		s.ShippingBaseCost = decimal.Zero
	}
	if s.ExpressShippingCost.IsNegative() {
		s.ExpressShippingCost = s.ShippingBaseCost
	}
	if !s.PointsPerCurrencyUnit.IsPositive() {
		s.PointsPerCurrencyUnit = decimal.NewFromInt(1)
	}
	s.ExtrasPolicyVersion = strings.TrimSpace(s.ExtrasPolicyVersion)
	if s.ExtrasPolicyVersion == "" {
		s.ExtrasPolicyVersion = constants.ExtrasPolicyFormula
	}
	return s
}

// ValidatePricingSettings 校验后台提交的定价参数
func ValidatePricingSettings(s PricingSettings) error {
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: tax_rate must be in [0,1)", ErrSettingInvalid)
	}
	if _, err := pricing.NewExtrasPolicy(s.ExtrasPolicyVersion); err != nil {
		return fmt.Errorf("%w: %v", ErrSettingInvalid, err)
	}
	return nil
}

// ExtrasPolicy 返回当前生效的附加服务定价策略
func (s PricingSettings) ExtrasPolicy() (pricing.ExtrasPricingPolicy, error) {
	return pricing.NewExtrasPolicy(s.ExtrasPolicyVersion)
}

// ShippingCostFor 按配送方式返回基础运费，自提免运费
func (s PricingSettings) ShippingCostFor(method string) decimal.Decimal {
	switch normalizeShippingMethod(method) {
	case constants.ShippingMethodPickup:
		return decimal.Zero
	case constants.ShippingMethodExpress:
		return s.ExpressShippingCost
	default:
		return s.ShippingBaseCost
	}
}

// TaxShipping 按当前参数计算税费与运费
func (s PricingSettings) TaxShipping(subtotal decimal.Decimal, shippingMethod string, taxExempt, shipmentCredit bool) pricing.TaxShipping {
	return pricing.ApplyTaxAndShipping(pricing.TaxShippingInput{
		Subtotal:              subtotal,
		ShippingBaseCost:      s.ShippingCostFor(shippingMethod),
		TaxExempt:             taxExempt,
		FreeShippingThreshold: s.FreeShippingThreshold,
		TaxRate:               s.TaxRate,
		ShipmentCredit:        shipmentCredit,
	})
}

func pricingSettingsFromJSON(raw models.JSON, fallback PricingSettings) PricingSettings {
	next := fallback
	if raw == nil {
		return next
	}
	next.Currency = readString(raw, "currency", next.Currency)
	next.TaxRate = readDecimal(raw, "tax_rate", next.TaxRate)
	next.FreeShippingThreshold = readDecimal(raw, "free_shipping_threshold", next.FreeShippingThreshold)
	next.ShippingBaseCost = readDecimal(raw, "shipping_base_cost", next.ShippingBaseCost)
	next.ExpressShippingCost = readDecimal(raw, "express_shipping_cost", next.ExpressShippingCost)
	next.PointsPerCurrencyUnit = readDecimal(raw, "points_per_currency_unit", next.PointsPerCurrencyUnit)
	next.ExtrasPolicyVersion = readString(raw, "extras_policy_version", next.ExtrasPolicyVersion)
	return next
}

// PricingSettingsToMap 转换为 settings 存储结构，金额以字符串保存
func PricingSettingsToMap(s PricingSettings) models.JSON {
	return models.JSON{
		"currency":                 s.Currency,
		"tax_rate":                 s.TaxRate.String(),
		"free_shipping_threshold":  s.FreeShippingThreshold.String(),
		"shipping_base_cost":       s.ShippingBaseCost.String(),
		"express_shipping_cost":    s.ExpressShippingCost.String(),
		"points_per_currency_unit": s.PointsPerCurrencyUnit.String(),
		"extras_policy_version":    s.ExtrasPolicyVersion,
	}
}

func normalizeShippingMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case constants.ShippingMethodExpress:
		return constants.ShippingMethodExpress
	case constants.ShippingMethodPickup:
		return constants.ShippingMethodPickup
	default:
		return constants.ShippingMethodStandard
	}
}
