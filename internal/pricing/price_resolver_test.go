package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardRanges() []Range {
	// 故意乱序，验证排序逻辑
	return []Range{
		{ID: 3, FromQty: d("25"), ToQty: dp("49"), Price: d("10")},
		{ID: 1, FromQty: d("1"), ToQty: dp("4"), Price: d("15")},
		{ID: 4, FromQty: d("50"), Price: d("9"), DiscountPct: dp("5")},
		{ID: 2, FromQty: d("5"), ToQty: dp("24"), Price: d("12")},
	}
}

func TestResolvePriceFiftyMetersUsesOpenEndedBand(t *testing.T) {
	result, err := ResolvePrice(d("50"), standardRanges())
	require.NoError(t, err)

	assertDecimal(t, "9", result.UnitPrice)
	assertDecimal(t, "450", result.Subtotal)
	assert.Equal(t, uint(4), result.AppliedRange.ID)
	assert.False(t, result.Fallback)
}

func TestResolvePriceSelectsContainingRange(t *testing.T) {
	cases := []struct {
		qty     string
		rangeID uint
		price   string
	}{
		{"1", 1, "15"},
		{"4", 1, "15"},
		{"5", 2, "12"},
		{"24", 2, "12"},
		{"25", 3, "10"},
		{"49", 3, "10"},
		{"120", 4, "9"},
	}
	for _, tc := range cases {
		result, err := ResolvePrice(d(tc.qty), standardRanges())
		require.NoError(t, err, tc.qty)
		assert.Equal(t, tc.rangeID, result.AppliedRange.ID, "qty %s", tc.qty)
		assertDecimal(t, tc.price, result.UnitPrice, "qty %s", tc.qty)
	}
}

func TestResolvePriceFallsBackToLastRange(t *testing.T) {
	ranges := []Range{
		{ID: 1, FromQty: d("5"), ToQty: dp("9"), Price: d("12")},
		{ID: 2, FromQty: d("10"), ToQty: dp("20"), Price: d("10")},
	}

	below, err := ResolvePrice(d("2"), ranges)
	require.NoError(t, err)
	assert.True(t, below.Fallback)
	assert.Equal(t, uint(2), below.AppliedRange.ID)
	assertDecimal(t, "20", below.Subtotal)

	beyond, err := ResolvePrice(d("30"), ranges)
	require.NoError(t, err)
	assert.True(t, beyond.Fallback)
	assertDecimal(t, "10", beyond.UnitPrice)
}

func TestResolvePriceDiscountIsReportedNotNetted(t *testing.T) {
	result, err := ResolvePrice(d("60"), standardRanges())
	require.NoError(t, err)

	assertDecimal(t, "540", result.Subtotal)
	assertDecimal(t, "5", result.DiscountPct)
	assertDecimal(t, "27", result.DiscountAmount)
	assertDecimal(t, "540", result.PayableSubtotal(false))
	assertDecimal(t, "513", result.PayableSubtotal(true))
}

func TestResolvePriceErrors(t *testing.T) {
	_, err := ResolvePrice(d("5"), nil)
	assert.ErrorIs(t, err, ErrNoPriceRangesConfigured)

	_, err = ResolvePrice(decimal.Zero, standardRanges())
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ResolvePrice(d("-3"), standardRanges())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResolvePriceUnitPriceNonIncreasingAcrossBands(t *testing.T) {
	previous := decimal.Zero
	for q := 1; q <= 80; q++ {
		result, err := ResolvePrice(decimal.NewFromInt(int64(q)), standardRanges())
		require.NoError(t, err)
		if q > 1 {
			assert.True(t, result.UnitPrice.LessThanOrEqual(previous), "qty %d", q)
		}
		previous = result.UnitPrice
	}
}

func TestValidateRanges(t *testing.T) {
	require.NoError(t, ValidateRanges(standardRanges()))

	overlapping := []Range{
		{FromQty: d("1"), ToQty: dp("10"), Price: d("15")},
		{FromQty: d("10"), Price: d("12")},
	}
	assert.ErrorIs(t, ValidateRanges(overlapping), ErrOverlappingRanges)

	openInMiddle := []Range{
		{FromQty: d("1"), Price: d("15")},
		{FromQty: d("10"), Price: d("12")},
	}
	assert.ErrorIs(t, ValidateRanges(openInMiddle), ErrOverlappingRanges)

	inverted := []Range{{FromQty: d("10"), ToQty: dp("5"), Price: d("15")}}
	assert.ErrorIs(t, ValidateRanges(inverted), ErrInvalidRange)

	assert.ErrorIs(t, ValidateRanges(nil), ErrNoPriceRangesConfigured)
}
