package pricing

import (
	"testing"

	"github.com/printroll-next/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaPolicyPriorityBands(t *testing.T) {
	cases := []struct {
		meters string
		want   string
	}{
		{"0.5", "4.5"},
		{"3.99", "4.5"},
		{"4", "18"},
		{"9.5", "18"},
		{"10", "33"},
		{"19", "33"},
		{"20", "48"},
		{"30", "58.5"},
		{"39.9", "58.5"},
		{"40", "73.5"},
		{"50", "73.5"},
		{"200", "73.5"},
	}
	policy := FormulaPolicy{}
	for _, tc := range cases {
		extras, err := policy.Price(d(tc.meters), Selection{Priority: true})
		require.NoError(t, err)
		assertDecimal(t, tc.want, extras.Priority, "meters %s", tc.meters)
		assertDecimal(t, tc.want, extras.Total, "meters %s", tc.meters)
	}
}

func TestFormulaPolicyCuttingAndLayout(t *testing.T) {
	extras, err := FormulaPolicy{}.Price(d("12"), Selection{Cutting: true, Layout: true})
	require.NoError(t, err)

	assertDecimal(t, "11", extras.Cutting)
	assertDecimal(t, "10", extras.Layout)
	assertDecimal(t, "0", extras.Priority)
	assertDecimal(t, "21", extras.Total)
	assert.Equal(t, constants.ExtrasPolicyFormula, extras.Version)
}

func TestFormulaPolicyNoSelectionIsFree(t *testing.T) {
	extras, err := FormulaPolicy{}.Price(d("7"), Selection{})
	require.NoError(t, err)
	assertDecimal(t, "0", extras.Total)
}

func TestLegacyTablePolicyFloorsAndCaps(t *testing.T) {
	policy := LegacyTablePolicy{}
	all := Selection{Priority: true, Layout: true, Cutting: true}

	floored, err := policy.Price(d("4.9"), all)
	require.NoError(t, err)
	exact, err := policy.Price(d("4"), all)
	require.NoError(t, err)
	assertDecimal(t, exact.Total.String(), floored.Total)

	atCap, err := policy.Price(d("50"), all)
	require.NoError(t, err)
	beyondCap, err := policy.Price(d("180"), all)
	require.NoError(t, err)
	assertDecimal(t, atCap.Total.String(), beyondCap.Total)

	tiny, err := policy.Price(d("0.3"), Selection{Cutting: true})
	require.NoError(t, err)
	assertDecimal(t, "6.5", tiny.Cutting)
}

func TestExtrasPoliciesRejectNonPositiveQuantity(t *testing.T) {
	for _, policy := range []ExtrasPricingPolicy{FormulaPolicy{}, LegacyTablePolicy{}} {
		_, err := policy.Price(d("0"), Selection{Priority: true})
		assert.ErrorIs(t, err, ErrInvalidQuantity, policy.Version())
	}
}

func TestNewExtrasPolicy(t *testing.T) {
	policy, err := NewExtrasPolicy("")
	require.NoError(t, err)
	assert.Equal(t, constants.ExtrasPolicyFormula, policy.Version())

	policy, err = NewExtrasPolicy(constants.ExtrasPolicyLegacyTable)
	require.NoError(t, err)
	assert.Equal(t, constants.ExtrasPolicyLegacyTable, policy.Version())

	_, err = NewExtrasPolicy("v3-unknown")
	assert.ErrorIs(t, err, ErrUnknownExtrasPolicy)
}
