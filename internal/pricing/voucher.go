package pricing

import "github.com/shopspring/decimal"

// VoucherBalance 凭证可用余额快照
type VoucherBalance struct {
	RemainingMeters    decimal.Decimal
	RemainingShipments int
	Active             bool
}

// Coverage 凭证覆盖评估结果
type Coverage struct {
	FullyCovered         bool
	PartiallyCovered     bool
	MetersFromVoucher    decimal.Decimal
	MetersToPay          decimal.Decimal
	ShipmentsFromVoucher int
}

// EvaluateCoverage 评估凭证对所需米数与运费的覆盖情况
//
// 米数与免运费次数独立评估：免运费次数只在配送方式适用时抵扣。
func EvaluateCoverage(requiredMeters decimal.Decimal, requiredShipments int, balance VoucherBalance, eligibleShipping bool) Coverage {
	result := Coverage{
		MetersFromVoucher: decimal.Zero,
		MetersToPay:       requiredMeters,
	}
	if !balance.Active || !requiredMeters.IsPositive() {
		if requiredMeters.IsNegative() {
			result.MetersToPay = decimal.Zero
		}
		return result
	}

	if balance.RemainingMeters.GreaterThanOrEqual(requiredMeters) {
		result.FullyCovered = true
		result.MetersFromVoucher = requiredMeters
		result.MetersToPay = decimal.Zero
	} else if balance.RemainingMeters.IsPositive() {
		result.PartiallyCovered = true
		result.MetersFromVoucher = balance.RemainingMeters
		result.MetersToPay = requiredMeters.Sub(balance.RemainingMeters)
	}

	if eligibleShipping && requiredShipments > 0 && balance.RemainingShipments > 0 {
		result.ShipmentsFromVoucher = requiredShipments
		if balance.RemainingShipments < requiredShipments {
			result.ShipmentsFromVoucher = balance.RemainingShipments
		}
	}
	return result
}
