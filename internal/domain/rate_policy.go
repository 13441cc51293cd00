package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PolicyMode names an exchange-rate update strategy.
type PolicyMode string

const (
	PolicyLastWrite       PolicyMode = "last_write"
	PolicyWeightedAverage PolicyMode = "weighted_average"
)

// ParsePolicyMode accepts the mode names case-insensitively.
func ParsePolicyMode(raw string) (PolicyMode, error) {
	switch PolicyMode(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyLastWrite:
		return PolicyLastWrite, nil
	case PolicyWeightedAverage:
		return PolicyWeightedAverage, nil
	default:
		return "", NewValidationError(ErrInvalidPolicy, "policy", "unknown mode %q", raw)
	}
}

// RateState is the per-currency state of a rate policy: the stored rate and
// how many observations it summarizes.
type RateState struct {
	Rate  *ExchangeRate
	Count int
}

// RatePolicy computes a new stored rate from an observation. It holds no
// mutable state; Apply takes the previous state and returns the next one.
type RatePolicy struct {
	Mode      PolicyMode
	Precision Precision
}

// NewRatePolicy builds a policy for mode.
func NewRatePolicy(mode PolicyMode, p Precision) (RatePolicy, error) {
	if mode != PolicyLastWrite && mode != PolicyWeightedAverage {
		return RatePolicy{}, NewValidationError(ErrInvalidPolicy, "policy", "unknown mode %q", mode)
	}
	return RatePolicy{Mode: mode, Precision: p}, nil
}

// Apply folds observed into prev.
func (p RatePolicy) Apply(prev RateState, observed decimal.Decimal) (RateState, error) {
	if observed.LessThanOrEqual(decimal.Zero) {
		return prev, NewDomainError(ErrInvalidRate, "observed", "got %s", observed.String())
	}

	obs, err := NewExchangeRate(observed, p.Precision)
	if err != nil {
		return prev, err
	}

	if p.Mode == PolicyLastWrite {
		return RateState{Rate: &obs, Count: 1}, nil
	}

	if prev.Rate == nil || !prev.Rate.Decimal().IsPositive() {
		return RateState{Rate: &obs, Count: 1}, nil
	}

	previous := prev.Rate.Decimal()
	var next decimal.Decimal
	count := prev.Count

	if count <= 1 {
		next = p.Precision.Div(previous.Add(obs.Decimal()), decimal.NewFromInt(2))
		count = 2
	} else {
		n := decimal.NewFromInt(int64(count))
		next = p.Precision.Div(previous.Mul(n).Add(obs.Decimal()), n.Add(decimal.NewFromInt(1)))
		count++
	}

	rate, err := NewExchangeRate(next, p.Precision)
	if err != nil {
		return prev, err
	}

	return RateState{Rate: &rate, Count: count}, nil
}
