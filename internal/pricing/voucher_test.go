package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCoverageFull(t *testing.T) {
	coverage := EvaluateCoverage(d("6"), 0, VoucherBalance{RemainingMeters: d("10"), Active: true}, false)

	assert.True(t, coverage.FullyCovered)
	assert.False(t, coverage.PartiallyCovered)
	assertDecimal(t, "6", coverage.MetersFromVoucher)
	assertDecimal(t, "0", coverage.MetersToPay)
}

func TestEvaluateCoveragePartial(t *testing.T) {
	coverage := EvaluateCoverage(d("6"), 0, VoucherBalance{RemainingMeters: d("3"), Active: true}, false)

	assert.False(t, coverage.FullyCovered)
	assert.True(t, coverage.PartiallyCovered)
	assertDecimal(t, "3", coverage.MetersFromVoucher)
	assertDecimal(t, "3", coverage.MetersToPay)
}

func TestEvaluateCoverageExactBalanceIsFull(t *testing.T) {
	coverage := EvaluateCoverage(d("6"), 0, VoucherBalance{RemainingMeters: d("6"), Active: true}, false)
	assert.True(t, coverage.FullyCovered)
}

func TestEvaluateCoverageEmptyOrInactive(t *testing.T) {
	empty := EvaluateCoverage(d("6"), 1, VoucherBalance{RemainingMeters: d("0"), Active: true}, true)
	assert.False(t, empty.FullyCovered)
	assert.False(t, empty.PartiallyCovered)
	assertDecimal(t, "6", empty.MetersToPay)

	inactive := EvaluateCoverage(d("6"), 1, VoucherBalance{RemainingMeters: d("10"), RemainingShipments: 2}, true)
	assert.False(t, inactive.FullyCovered)
	assert.Equal(t, 0, inactive.ShipmentsFromVoucher)
}

func TestEvaluateCoverageShipmentsIndependentOfMeters(t *testing.T) {
	balance := VoucherBalance{RemainingMeters: d("0"), RemainingShipments: 2, Active: true}

	eligible := EvaluateCoverage(d("6"), 1, balance, true)
	assert.Equal(t, 1, eligible.ShipmentsFromVoucher)
	assert.False(t, eligible.PartiallyCovered)

	notEligible := EvaluateCoverage(d("6"), 1, balance, false)
	assert.Equal(t, 0, notEligible.ShipmentsFromVoucher)
}
