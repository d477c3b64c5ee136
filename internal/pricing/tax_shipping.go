package pricing

import "github.com/shopspring/decimal"

var (
	DefaultTaxRate               = decimal.RequireFromString("0.21")
	DefaultFreeShippingThreshold = decimal.NewFromInt(100)
)

// TaxShippingInput 税费与运费计算参数
//
// Subtotal 必须是已扣除凭证、积分、优惠券后的税前商品小计。
type TaxShippingInput struct {
	Subtotal              decimal.Decimal
	ShippingBaseCost      decimal.Decimal
	TaxExempt             bool
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
	ShipmentCredit        bool
}

// TaxShipping 税费与运费计算结果
type TaxShipping struct {
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	Total          decimal.Decimal
	ShippingWaived bool
}

// ApplyTaxAndShipping 先按税前小计判断是否免运费，再计算税额，合计 = 小计 + 税 + 运费
func ApplyTaxAndShipping(in TaxShippingInput) TaxShipping {
	subtotal := in.Subtotal
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	subtotal = subtotal.Round(2)

	shipping := in.ShippingBaseCost.Round(2)
	waived := false
	if in.ShipmentCredit || subtotal.GreaterThanOrEqual(in.FreeShippingThreshold) {
		shipping = decimal.Zero
		waived = true
	}
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	tax := decimal.Zero
	if !in.TaxExempt {
		tax = subtotal.Mul(in.TaxRate).Round(2)
	}

	return TaxShipping{
		Subtotal:       subtotal,
		Tax:            tax,
		Shipping:       shipping,
		Total:          subtotal.Add(tax).Add(shipping),
		ShippingWaived: waived,
	}
}
