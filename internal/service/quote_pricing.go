package service

import (
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"

	"github.com/shopspring/decimal"
)

// quotePricingInput 报价单定价参数
type quotePricingInput struct {
	Meters         decimal.Decimal
	Selection      pricing.Selection
	ShippingMethod string
	TaxExempt      bool
	ShippingCost   *decimal.Decimal
	Coverage       *pricing.Coverage
}

// quotePricing 报价单定价结果
type quotePricing struct {
	Price                pricing.PriceResult
	Extras               pricing.Extras
	TaxShipping          pricing.TaxShipping
	MetersFromVoucher    decimal.Decimal
	ShipmentsFromVoucher int
	FullyCovered         bool
}

// computeQuotePricing 计算报价单金额
//
// 阶梯折扣只展示不扣减；凭证部分覆盖时仅对差额米数计价，附加服务按全部米数计价；
// 凭证完全覆盖时所有金额为零。
func computeQuotePricing(settings PricingSettings, policy pricing.ExtrasPricingPolicy, ranges []pricing.Range, in quotePricingInput) (quotePricing, error) {
	result := quotePricing{MetersFromVoucher: decimal.Zero}
	if in.Coverage != nil {
		result.MetersFromVoucher = in.Coverage.MetersFromVoucher
		result.ShipmentsFromVoucher = in.Coverage.ShipmentsFromVoucher
		result.FullyCovered = in.Coverage.FullyCovered
	}

	extras, err := policy.Price(in.Meters, in.Selection)
	if err != nil {
		return quotePricing{}, err
	}
	result.Extras = extras

	if result.FullyCovered {
		price, err := pricing.ResolvePrice(in.Meters, ranges)
		if err != nil {
			return quotePricing{}, err
		}
		result.Price = pricing.PriceResult{
			UnitPrice:    price.UnitPrice,
			AppliedRange: price.AppliedRange,
			Fallback:     price.Fallback,
		}
		result.Extras = pricing.Extras{Version: extras.Version}
		result.TaxShipping = pricing.TaxShipping{ShippingWaived: true}
		return result, nil
	}

	payMeters := in.Meters
	if in.Coverage != nil && in.Coverage.PartiallyCovered {
		payMeters = in.Coverage.MetersToPay
	}
	price, err := pricing.ResolvePrice(payMeters, ranges)
	if err != nil {
		return quotePricing{}, err
	}
	result.Price = price

	subtotal := price.PayableSubtotal(false).Add(extras.Total)
	shippingBase := settings.ShippingCostFor(in.ShippingMethod)
	if in.ShippingCost != nil && !in.ShippingCost.IsNegative() {
		shippingBase = *in.ShippingCost
	}
	result.TaxShipping = pricing.ApplyTaxAndShipping(pricing.TaxShippingInput{
		Subtotal:              subtotal,
		ShippingBaseCost:      shippingBase,
		TaxExempt:             in.TaxExempt,
		FreeShippingThreshold: settings.FreeShippingThreshold,
		TaxRate:               settings.TaxRate,
		ShipmentCredit:        result.ShipmentsFromVoucher > 0,
	})
	return result, nil
}

// updates 转为报价单条件更新字段
func (p quotePricing) updates(meters decimal.Decimal) map[string]interface{} {
	pricePerMeter := models.NewMoneyFromDecimal(p.Price.UnitPrice)
	subtotal := models.NewMoneyFromDecimal(p.TaxShipping.Subtotal)
	tax := models.NewMoneyFromDecimal(p.TaxShipping.Tax)
	shipping := models.NewMoneyFromDecimal(p.TaxShipping.Shipping)
	total := models.NewMoneyFromDecimal(p.TaxShipping.Total)
	return map[string]interface{}{
		"estimated_meters":       decimal.NewNullDecimal(meters.Round(2)),
		"price_per_meter":        &pricePerMeter,
		"subtotal":               &subtotal,
		"discount_amount":        models.NewMoneyFromDecimal(p.Price.DiscountAmount),
		"extras_amount":          models.NewMoneyFromDecimal(p.Extras.Total),
		"tax_amount":             &tax,
		"shipping_cost":          &shipping,
		"estimated_total":        &total,
		"meters_from_voucher":    p.MetersFromVoucher.Round(2),
		"shipments_from_voucher": p.ShipmentsFromVoucher,
	}
}

// toPricingRanges 将阶梯价行转换为定价区间
func toPricingRanges(rows []models.PriceRange) []pricing.Range {
	ranges := make([]pricing.Range, 0, len(rows))
	for _, row := range rows {
		item := pricing.Range{
			ID:      row.ID,
			FromQty: row.FromQty,
			Price:   row.Price.Decimal,
		}
		if row.ToQty.Valid {
			to := row.ToQty.Decimal
			item.ToQty = &to
		}
		if row.DiscountPct.Valid {
			pct := row.DiscountPct.Decimal
			item.DiscountPct = &pct
		}
		ranges = append(ranges, item)
	}
	return ranges
}

// extrasSnapshot 附加服务明细快照，写入订单项
func extrasSnapshot(extras pricing.Extras, selection pricing.Selection) models.JSON {
	return models.JSON{
		"version":  extras.Version,
		"priority": selection.Priority,
		"layout":   selection.Layout,
		"cutting":  selection.Cutting,
		"amounts": map[string]interface{}{
			"priority": extras.Priority.StringFixed(2),
			"layout":   extras.Layout.StringFixed(2),
			"cutting":  extras.Cutting.StringFixed(2),
			"total":    extras.Total.StringFixed(2),
		},
	}
}
