package domain

import (
	"github.com/shopspring/decimal"
)

// ExchangeRate is a strictly positive rate quantized to the rate scale.
type ExchangeRate struct {
	value decimal.Decimal
}

// NewExchangeRate quantizes value with p and rejects anything not above zero.
func NewExchangeRate(value decimal.Decimal, p Precision) (ExchangeRate, error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return ExchangeRate{}, NewValidationError(ErrInvalidRate, "rate", "got %s", value.String())
	}

	q := p.Rate(value)
	if !q.IsPositive() {
		return ExchangeRate{}, NewValidationError(ErrInvalidRate, "rate", "%s rounds to zero at scale %d", value.String(), p.RateScale)
	}

	return ExchangeRate{value: q}, nil
}

// ParseExchangeRate parses a decimal string into a rate.
func ParseExchangeRate(s string, p Precision) (ExchangeRate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ExchangeRate{}, NewValidationError(ErrInvalidRate, "rate", "cannot parse %q", s)
	}
	return NewExchangeRate(d, p)
}

func (r ExchangeRate) Decimal() decimal.Decimal {
	return r.value
}

func (r ExchangeRate) String() string {
	return r.value.StringFixed(r.scale())
}

func (r ExchangeRate) Equal(o ExchangeRate) bool {
	return r.value.Equal(o.value)
}

func (r ExchangeRate) scale() int32 {
	if exp := r.value.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}
