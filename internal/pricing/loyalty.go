package pricing

import (
	"github.com/printroll-next/internal/constants"

	"github.com/shopspring/decimal"
)

// PointsPerCurrencyUnit 积分抵扣比例：20 积分 = 1 货币单位
const PointsPerCurrencyUnit = 20

type tierThreshold struct {
	tier       string
	minSpent   decimal.Decimal
	multiplier decimal.Decimal
}

// 按门槛升序
var tierThresholds = []tierThreshold{
	{tier: constants.LoyaltyTierBronze, minSpent: decimal.Zero, multiplier: decimal.NewFromInt(1)},
	{tier: constants.LoyaltyTierSilver, minSpent: decimal.NewFromInt(200), multiplier: decimal.RequireFromString("1.25")},
	{tier: constants.LoyaltyTierGold, minSpent: decimal.NewFromInt(500), multiplier: decimal.RequireFromString("1.5")},
	{tier: constants.LoyaltyTierPlatinum, minSpent: decimal.NewFromInt(1000), multiplier: decimal.NewFromInt(2)},
}

// TierFor 根据累计消费计算会员等级
func TierFor(totalSpent decimal.Decimal) string {
	tier := constants.LoyaltyTierBronze
	for _, t := range tierThresholds {
		if totalSpent.GreaterThanOrEqual(t.minSpent) {
			tier = t.tier
		}
	}
	return tier
}

// TierMultiplier 返回等级积分倍率，未知等级按 BRONZE 处理
func TierMultiplier(tier string) decimal.Decimal {
	for _, t := range tierThresholds {
		if t.tier == tier {
			return t.multiplier
		}
	}
	return tierThresholds[0].multiplier
}

func tierRank(tier string) int {
	for i, t := range tierThresholds {
		if t.tier == tier {
			return i
		}
	}
	return 0
}

// AccrualInput 积分累计参数
type AccrualInput struct {
	MonetarySpend     decimal.Decimal
	CurrentTotalSpent decimal.Decimal
	CurrentTier       string
	PointsPerUnit     decimal.Decimal
	PaidWithVoucher   bool
}

// Accrual 积分累计结果
type Accrual struct {
	Skipped       bool
	PointsEarned  int64
	NewTotalSpent decimal.Decimal
	NewTier       string
}

// Accrue 计算本次结算获得的积分与新的累计消费、等级
//
// 凭证结算不累计积分也不增加累计消费；等级只升不降。
func Accrue(in AccrualInput) Accrual {
	currentTier := in.CurrentTier
	if currentTier == "" {
		currentTier = TierFor(in.CurrentTotalSpent)
	}
	if in.PaidWithVoucher || !in.MonetarySpend.IsPositive() {
		return Accrual{
			Skipped:       true,
			NewTotalSpent: in.CurrentTotalSpent,
			NewTier:       currentTier,
		}
	}

	rate := in.PointsPerUnit
	if !rate.IsPositive() {
		rate = decimal.NewFromInt(1)
	}
	points := in.MonetarySpend.Mul(rate).Mul(TierMultiplier(currentTier)).Floor().IntPart()
	newTotal := in.CurrentTotalSpent.Add(in.MonetarySpend)
	newTier := TierFor(newTotal)
	if tierRank(newTier) < tierRank(currentTier) {
		newTier = currentTier
	}
	return Accrual{
		PointsEarned:  points,
		NewTotalSpent: newTotal,
		NewTier:       newTier,
	}
}

// PointsToDiscount 积分换算抵扣金额（向下取到分）
func PointsToDiscount(points int64) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(points).Div(decimal.NewFromInt(PointsPerCurrencyUnit)).RoundFloor(2)
}

// DiscountToPoints 抵扣金额换算所需积分（向上取整）
func DiscountToPoints(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Mul(decimal.NewFromInt(PointsPerCurrencyUnit)).Ceil().IntPart()
}

// NextTier 返回下一等级及其消费门槛，已是最高等级时 ok 为 false
func NextTier(totalSpent decimal.Decimal) (tier string, threshold decimal.Decimal, ok bool) {
	for _, t := range tierThresholds {
		if totalSpent.LessThan(t.minSpent) {
			return t.tier, t.minSpent, true
		}
	}
	return "", decimal.Zero, false
}
