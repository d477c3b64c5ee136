package pricing

import (
	"strings"

	"github.com/printroll-next/internal/constants"

	"github.com/shopspring/decimal"
)

// Selection 附加服务选择
type Selection struct {
	Priority bool
	Layout   bool
	Cutting  bool
}

// Any 是否选择了任一附加服务
func (s Selection) Any() bool {
	return s.Priority || s.Layout || s.Cutting
}

// Extras 附加服务报价明细
type Extras struct {
	Version  string
	Priority decimal.Decimal
	Layout   decimal.Decimal
	Cutting  decimal.Decimal
	Total    decimal.Decimal
}

// ExtrasPricingPolicy 附加服务定价策略
type ExtrasPricingPolicy interface {
	Version() string
	Price(quantity decimal.Decimal, selection Selection) (Extras, error)
}

// NewExtrasPolicy 按版本号返回定价策略，空版本使用公式版
func NewExtrasPolicy(version string) (ExtrasPricingPolicy, error) {
	switch strings.TrimSpace(version) {
	case "", constants.ExtrasPolicyFormula:
		return FormulaPolicy{}, nil
	case constants.ExtrasPolicyLegacyTable:
		return LegacyTablePolicy{}, nil
	default:
		return nil, ErrUnknownExtrasPolicy
	}
}

type priorityBand struct {
	upTo  decimal.Decimal
	price decimal.Decimal
}

var (
	cuttingBase      = decimal.NewFromInt(5)
	cuttingPerMeter  = decimal.RequireFromString("0.5")
	layoutFlat       = decimal.NewFromInt(10)
	priorityCapPrice = decimal.RequireFromString("73.5")

	// 上限不含：[0,4) [4,10) [10,20) [20,30) [30,40)，40 米及以上按封顶价
	priorityBands = []priorityBand{
		{upTo: decimal.NewFromInt(4), price: decimal.RequireFromString("4.5")},
		{upTo: decimal.NewFromInt(10), price: decimal.NewFromInt(18)},
		{upTo: decimal.NewFromInt(20), price: decimal.NewFromInt(33)},
		{upTo: decimal.NewFromInt(30), price: decimal.NewFromInt(48)},
		{upTo: decimal.NewFromInt(40), price: decimal.RequireFromString("58.5")},
	}
)

// FormulaPolicy 公式版附加服务定价（当前标准）
type FormulaPolicy struct{}

// Version 版本号
func (FormulaPolicy) Version() string {
	return constants.ExtrasPolicyFormula
}

// Price 计算附加服务费用
func (p FormulaPolicy) Price(quantity decimal.Decimal, selection Selection) (Extras, error) {
	if !quantity.IsPositive() {
		return Extras{}, ErrInvalidQuantity
	}
	result := Extras{
		Version:  p.Version(),
		Priority: decimal.Zero,
		Layout:   decimal.Zero,
		Cutting:  decimal.Zero,
	}
	if selection.Cutting {
		result.Cutting = cuttingBase.Add(cuttingPerMeter.Mul(quantity)).Round(2)
	}
	if selection.Layout {
		result.Layout = layoutFlat
	}
	if selection.Priority {
		result.Priority = priorityPrice(quantity)
	}
	result.Total = result.Priority.Add(result.Layout).Add(result.Cutting)
	return result, nil
}

func priorityPrice(quantity decimal.Decimal) decimal.Decimal {
	for _, band := range priorityBands {
		if quantity.LessThan(band.upTo) {
			return band.price
		}
	}
	return priorityCapPrice
}
