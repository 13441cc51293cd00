package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurrencyCode(t *testing.T) {
	tests := []struct {
		input       string
		want        CurrencyCode
		expectError bool
	}{
		{input: "usd", want: "USD"},
		{input: " eur ", want: "EUR"},
		{input: "USDT_2", want: "USDT_2"},
		{input: "BT", want: "BT"},
		{input: "ABCDEFGHIJ", want: "ABCDEFGHIJ"},
		{input: "", expectError: true},
		{input: "U", expectError: true},
		{input: "ABCDEFGHIJK", expectError: true},
		{input: "US-D", expectError: true},
		{input: "€UR", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewCurrencyCode(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidCurrency)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func currencySet(t *testing.T) []*Currency {
	t.Helper()

	p := DefaultPrecision()
	usd := &Currency{Code: "USD", IsBase: true}
	eur := &Currency{Code: "EUR"}
	rate, err := NewExchangeRate(decimal.RequireFromString("1.25"), p)
	require.NoError(t, err)
	eur.RateToBase = &rate
	gbp := &Currency{Code: "GBP"}

	return []*Currency{usd, eur, gbp}
}

func TestEnsureSingleBase(t *testing.T) {
	set := currencySet(t)

	base, err := EnsureSingleBase(set, "eur")
	require.NoError(t, err)
	assert.Equal(t, CurrencyCode("EUR"), base.Code)

	bases := 0
	for _, c := range set {
		if c.IsBase {
			bases++
		}
	}
	assert.Equal(t, 1, bases)
	assert.False(t, set[0].IsBase)
	assert.Nil(t, base.RateToBase, "base currency carries no rate")
	assert.Nil(t, set[0].RateToBase, "old base keeps its (empty) rate")
}

func TestEnsureSingleBase_KeepsOtherRates(t *testing.T) {
	set := currencySet(t)

	_, err := EnsureSingleBase(set, "GBP")
	require.NoError(t, err)

	rate, ok := set[1].Rate()
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.25")))
}

func TestEnsureSingleBase_NotFound(t *testing.T) {
	set := currencySet(t)

	_, err := EnsureSingleBase(set, "JPY")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
	assert.True(t, IsDomain(err))
	assert.False(t, IsValidation(err))
	assert.True(t, set[0].IsBase, "set untouched on failure")
}

func TestClearBase(t *testing.T) {
	set := currencySet(t)
	ClearBase(set)

	_, ok := BaseOf(set)
	assert.False(t, ok)
}

func TestCurrency_SetRateOnBase(t *testing.T) {
	usd := &Currency{Code: "USD", IsBase: true}
	rate, err := NewExchangeRate(decimal.NewFromInt(2), DefaultPrecision())
	require.NoError(t, err)

	assert.ErrorIs(t, usd.SetRate(rate), ErrBaseCurrencyRate)
}

func TestNewExchangeRate(t *testing.T) {
	p := DefaultPrecision()

	r, err := NewExchangeRate(decimal.RequireFromString("1.23456789"), p)
	require.NoError(t, err)
	assert.Equal(t, "1.234568", r.String())

	_, err = NewExchangeRate(decimal.Zero, p)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewExchangeRate(decimal.NewFromInt(-1), p)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewExchangeRate(decimal.RequireFromString("0.0000001"), p)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = ParseExchangeRate("abc", p)
	assert.ErrorIs(t, err, ErrInvalidRate)
}
