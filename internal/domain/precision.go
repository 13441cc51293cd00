package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rounding selects how quantization resolves ties.
type Rounding string

const (
	RoundHalfEven Rounding = "half_even"
	RoundHalfUp   Rounding = "half_up"
)

// Default scales.
const (
	MoneyScale    = 2
	RateScale     = 6
	DivisionScale = 16
)

// Precision is the rounding configuration threaded into every quantization.
// It is a plain value: callers copy it, nothing mutates it in place, and the
// package-level decimal.DivisionPrecision is never consulted.
type Precision struct {
	MoneyScale    int32
	RateScale     int32
	DivisionScale int32
	Rounding      Rounding
}

// DefaultPrecision returns money scale 2, rate scale 6, banker's rounding.
func DefaultPrecision() Precision {
	return Precision{
		MoneyScale:    MoneyScale,
		RateScale:     RateScale,
		DivisionScale: DivisionScale,
		Rounding:      RoundHalfEven,
	}
}

// NewPrecision builds a precision after checking its scales.
func NewPrecision(moneyScale, rateScale int32, rounding Rounding) (Precision, error) {
	if moneyScale < 0 || rateScale < 0 {
		return Precision{}, NewValidationError(ErrInvalidPrecision, "scale", "money=%d rate=%d", moneyScale, rateScale)
	}
	switch rounding {
	case RoundHalfEven, RoundHalfUp:
	default:
		return Precision{}, NewValidationError(ErrInvalidPrecision, "rounding", "unknown mode %q", rounding)
	}

	div := int32(DivisionScale)
	if rateScale+4 > div {
		div = rateScale + 4
	}

	return Precision{MoneyScale: moneyScale, RateScale: rateScale, DivisionScale: div, Rounding: rounding}, nil
}

// Money quantizes d to the money scale.
func (p Precision) Money(d decimal.Decimal) decimal.Decimal {
	return p.quantize(d, p.MoneyScale)
}

// Rate quantizes d to the rate scale.
func (p Precision) Rate(d decimal.Decimal) decimal.Decimal {
	return p.quantize(d, p.RateScale)
}

// Div divides with the explicit division scale.
func (p Precision) Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, p.DivisionScale)
}

func (p Precision) quantize(d decimal.Decimal, scale int32) decimal.Decimal {
	if p.Rounding == RoundHalfUp {
		return d.Round(scale)
	}
	return d.RoundBank(scale)
}

func (p Precision) String() string {
	return fmt.Sprintf("money=%d rate=%d div=%d rounding=%s", p.MoneyScale, p.RateScale, p.DivisionScale, p.Rounding)
}
