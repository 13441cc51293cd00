package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRatePolicy_WeightedAverage(t *testing.T) {
	policy, err := NewRatePolicy(PolicyWeightedAverage, DefaultPrecision())
	require.NoError(t, err)

	state, err := policy.Apply(RateState{}, d("1.10"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("1.10")), "first observation unchanged")
	assert.Equal(t, 1, state.Count)

	state, err = policy.Apply(state, d("1.20"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("1.15")), "second is the mean, got %s", state.Rate)
	assert.Equal(t, 2, state.Count)

	state, err = policy.Apply(state, d("1.30"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("1.2")), "third is (mean*2+third)/3, got %s", state.Rate)
	assert.Equal(t, 3, state.Count)

	state, err = policy.Apply(state, d("2.00"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("1.4")), "got %s", state.Rate)
	assert.Equal(t, 4, state.Count)
}

func TestRatePolicy_WeightedAverageRepeatingQuotient(t *testing.T) {
	policy, err := NewRatePolicy(PolicyWeightedAverage, DefaultPrecision())
	require.NoError(t, err)

	prev, err := NewExchangeRate(d("1"), DefaultPrecision())
	require.NoError(t, err)

	state, err := policy.Apply(RateState{Rate: &prev, Count: 2}, d("2"))
	require.NoError(t, err)
	assert.Equal(t, "1.333333", state.Rate.String())
}

func TestRatePolicy_PreviousWithoutCount(t *testing.T) {
	// A stored rate loaded from storage has no observation count; it is
	// treated as a single prior observation.
	policy, err := NewRatePolicy(PolicyWeightedAverage, DefaultPrecision())
	require.NoError(t, err)

	prev, err := NewExchangeRate(d("1.00"), DefaultPrecision())
	require.NoError(t, err)

	state, err := policy.Apply(RateState{Rate: &prev}, d("3.00"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("2")))
	assert.Equal(t, 2, state.Count)
}

func TestRatePolicy_LastWrite(t *testing.T) {
	policy, err := NewRatePolicy(PolicyLastWrite, DefaultPrecision())
	require.NoError(t, err)

	state, err := policy.Apply(RateState{}, d("1.10"))
	require.NoError(t, err)
	state.Count = 7

	state, err = policy.Apply(state, d("1.50"))
	require.NoError(t, err)
	assert.True(t, state.Rate.Decimal().Equal(d("1.5")))
	assert.Equal(t, 1, state.Count)
}

func TestRatePolicy_RejectsNonPositive(t *testing.T) {
	for _, mode := range []PolicyMode{PolicyLastWrite, PolicyWeightedAverage} {
		policy, err := NewRatePolicy(mode, DefaultPrecision())
		require.NoError(t, err)

		prev, err := NewExchangeRate(d("1.1"), DefaultPrecision())
		require.NoError(t, err)
		before := RateState{Rate: &prev, Count: 3}

		for _, obs := range []string{"0", "-1.5"} {
			got, err := policy.Apply(before, d(obs))
			assert.ErrorIs(t, err, ErrInvalidRate, "mode %s observed %s", mode, obs)
			assert.Equal(t, before, got)
		}
	}
}

func TestParsePolicyMode(t *testing.T) {
	m, err := ParsePolicyMode("Weighted_Average")
	require.NoError(t, err)
	assert.Equal(t, PolicyWeightedAverage, m)

	_, err = ParsePolicyMode("median")
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = NewRatePolicy("median", DefaultPrecision())
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPrecision(t *testing.T) {
	p := DefaultPrecision()
	assert.Equal(t, "2.12", p.Money(d("2.125")).String())
	assert.Equal(t, "2.14", p.Money(d("2.135")).String())

	up, err := NewPrecision(2, 6, RoundHalfUp)
	require.NoError(t, err)
	assert.Equal(t, "2.13", up.Money(d("2.125")).String())

	_, err = NewPrecision(-1, 6, RoundHalfUp)
	assert.ErrorIs(t, err, ErrInvalidPrecision)
	_, err = NewPrecision(2, 6, "truncate")
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	before := decimal.DivisionPrecision
	_ = p.Div(d("1"), d("3"))
	assert.Equal(t, before, decimal.DivisionPrecision)
}
