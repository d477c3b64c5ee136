package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Range 阶梯价区间，ToQty 为空表示无上限
type Range struct {
	ID          uint
	FromQty     decimal.Decimal
	ToQty       *decimal.Decimal
	Price       decimal.Decimal
	DiscountPct *decimal.Decimal
}

// Contains 判断数量是否落在区间内（两端均包含）
func (r Range) Contains(quantity decimal.Decimal) bool {
	if quantity.LessThan(r.FromQty) {
		return false
	}
	return r.ToQty == nil || quantity.LessThanOrEqual(*r.ToQty)
}

// PriceResult 阶梯价计算结果
//
// DiscountAmount 单独返回，是否从小计中扣除由调用方通过 PayableSubtotal 明确决定。
type PriceResult struct {
	UnitPrice      decimal.Decimal
	Subtotal       decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	AppliedRange   Range
	Fallback       bool
}

// PayableSubtotal 返回应付小计，netRangeDiscount 为 true 时扣除阶梯折扣
func (r PriceResult) PayableSubtotal(netRangeDiscount bool) decimal.Decimal {
	if !netRangeDiscount {
		return r.Subtotal
	}
	net := r.Subtotal.Sub(r.DiscountAmount)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// ResolvePrice 按数量匹配阶梯价
//
// 区间按 FromQty 升序排序后取第一个满足 from <= q <= to 的区间；
// 没有匹配时回退到最后一个（最高）区间而不是报错。
func ResolvePrice(quantity decimal.Decimal, ranges []Range) (PriceResult, error) {
	if len(ranges) == 0 {
		return PriceResult{}, ErrNoPriceRangesConfigured
	}
	if !quantity.IsPositive() {
		return PriceResult{}, ErrInvalidQuantity
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FromQty.LessThan(sorted[j].FromQty)
	})

	applied := sorted[len(sorted)-1]
	fallback := true
	for _, r := range sorted {
		if r.Contains(quantity) {
			applied = r
			fallback = false
			break
		}
	}

	subtotal := quantity.Mul(applied.Price).Round(2)
	pct := decimal.Zero
	if applied.DiscountPct != nil {
		pct = *applied.DiscountPct
	}
	return PriceResult{
		UnitPrice:      applied.Price,
		Subtotal:       subtotal,
		DiscountPct:    pct,
		DiscountAmount: subtotal.Mul(pct).Div(hundred).Round(2),
		AppliedRange:   applied,
		Fallback:       fallback,
	}, nil
}

// ValidateRanges 校验区间按起始数量排序后互不重叠，且仅最后一个区间允许无上限
func ValidateRanges(ranges []Range) error {
	if len(ranges) == 0 {
		return ErrNoPriceRangesConfigured
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FromQty.LessThan(sorted[j].FromQty)
	})
	for i, r := range sorted {
		if r.FromQty.IsNegative() || !r.Price.IsPositive() {
			return ErrInvalidRange
		}
		if r.ToQty != nil && r.ToQty.LessThan(r.FromQty) {
			return ErrInvalidRange
		}
		if i == len(sorted)-1 {
			break
		}
		if r.ToQty == nil {
			return ErrOverlappingRanges
		}
		if !sorted[i+1].FromQty.GreaterThan(*r.ToQty) {
			return ErrOverlappingRanges
		}
	}
	return nil
}
