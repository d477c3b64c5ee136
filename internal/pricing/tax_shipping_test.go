package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultInput(subtotal string) TaxShippingInput {
	return TaxShippingInput{
		Subtotal:              d(subtotal),
		ShippingBaseCost:      d("6"),
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		TaxRate:               DefaultTaxRate,
	}
}

func TestApplyTaxAndShippingBelowThreshold(t *testing.T) {
	result := ApplyTaxAndShipping(defaultInput("60"))

	assertDecimal(t, "12.6", result.Tax)
	assertDecimal(t, "6", result.Shipping)
	assertDecimal(t, "78.6", result.Total)
	assert.False(t, result.ShippingWaived)
}

func TestApplyTaxAndShippingThresholdUsesPreTaxSubtotal(t *testing.T) {
	// 90 + 21% 税 = 108.9，但免运费按税前小计判断
	result := ApplyTaxAndShipping(defaultInput("90"))
	assertDecimal(t, "6", result.Shipping)

	atThreshold := ApplyTaxAndShipping(defaultInput("100"))
	assertDecimal(t, "0", atThreshold.Shipping)
	assertDecimal(t, "121", atThreshold.Total)
	assert.True(t, atThreshold.ShippingWaived)
}

func TestApplyTaxAndShippingFreeAboveThresholdRegardlessOfBaseCost(t *testing.T) {
	for _, base := range []string{"0", "6", "49.99", "1000"} {
		in := defaultInput("150")
		in.ShippingBaseCost = d(base)
		assertDecimal(t, "0", ApplyTaxAndShipping(in).Shipping, "base %s", base)
	}
}

func TestApplyTaxAndShippingExemptHasNoTax(t *testing.T) {
	for _, rate := range []string{"0.21", "0.1", "0.5"} {
		in := defaultInput("80")
		in.TaxExempt = true
		in.TaxRate = d(rate)
		result := ApplyTaxAndShipping(in)
		assertDecimal(t, "0", result.Tax, "rate %s", rate)
		assertDecimal(t, "86", result.Total, "rate %s", rate)
	}
}

func TestApplyTaxAndShippingShipmentCreditForcesZero(t *testing.T) {
	in := defaultInput("20")
	in.ShipmentCredit = true
	result := ApplyTaxAndShipping(in)

	assertDecimal(t, "0", result.Shipping)
	assertDecimal(t, "24.2", result.Total)
}

func TestApplyTaxAndShippingQuoteScenario(t *testing.T) {
	// 5 米 × 12 元
	result := ApplyTaxAndShipping(defaultInput("60"))
	assertDecimal(t, result.Subtotal.Add(result.Tax).Add(result.Shipping).String(), result.Total)
	assertDecimal(t, "60", result.Subtotal)
}
