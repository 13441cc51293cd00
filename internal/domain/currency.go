package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyCode is an uppercase code of 2-10 characters from [A-Z0-9_].
type CurrencyCode string

// NewCurrencyCode trims and uppercases raw, then checks length and charset.
func NewCurrencyCode(raw string) (CurrencyCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	if code == "" {
		return "", NewValidationError(ErrInvalidCurrency, "code", "code cannot be empty")
	}

	if len(code) < MinCurrencyCodeLength || len(code) > MaxCurrencyCodeLength {
		return "", NewValidationError(ErrInvalidCurrency, code, "length must be between %d and %d", MinCurrencyCodeLength, MaxCurrencyCodeLength)
	}

	if !currencyCodeRegex.MatchString(code) {
		return "", NewValidationError(ErrInvalidCurrency, code, "only A-Z, 0-9 and _ are allowed")
	}

	return CurrencyCode(code), nil
}

func (c CurrencyCode) String() string {
	return string(c)
}

// Currency is a registered currency. RateToBase is nil for the base
// currency and for currencies that have not observed a rate yet.
type Currency struct {
	Code       CurrencyCode
	IsBase     bool
	RateToBase *ExchangeRate
}

// NewCurrency registers code without a rate.
func NewCurrency(raw string) (*Currency, error) {
	code, err := NewCurrencyCode(raw)
	if err != nil {
		return nil, err
	}
	return &Currency{Code: code}, nil
}

// Rate returns the stored rate and whether one is present.
func (c *Currency) Rate() (decimal.Decimal, bool) {
	if c.RateToBase == nil {
		return decimal.Zero, false
	}
	return c.RateToBase.Decimal(), true
}

// SetRate stores rate on a non-base currency.
func (c *Currency) SetRate(rate ExchangeRate) error {
	if c.IsBase {
		return NewDomainError(ErrBaseCurrencyRate, c.Code.String(), "rate to itself is 1")
	}
	c.RateToBase = &rate
	return nil
}

// EnsureSingleBase marks the currency matching newBase as the base and clears
// the flag everywhere else. Rates of other currencies are left as they are:
// switching the base does not rewrite history. The new base drops its own rate.
func EnsureSingleBase(currencies []*Currency, newBase string) (*Currency, error) {
	code, err := NewCurrencyCode(newBase)
	if err != nil {
		return nil, err
	}

	var base *Currency
	for _, c := range currencies {
		if c != nil && c.Code == code {
			base = c
			break
		}
	}

	if base == nil {
		return nil, NewDomainError(ErrCurrencyNotFound, code.String(), "cannot set base")
	}

	for _, c := range currencies {
		if c == nil {
			continue
		}
		c.IsBase = c == base
	}
	base.RateToBase = nil

	return base, nil
}

// ClearBase leaves the set without a base currency.
func ClearBase(currencies []*Currency) {
	for _, c := range currencies {
		if c != nil {
			c.IsBase = false
		}
	}
}

// BaseOf returns the base currency of the set, if any.
func BaseOf(currencies []*Currency) (*Currency, bool) {
	for _, c := range currencies {
		if c != nil && c.IsBase {
			return c, true
		}
	}
	return nil, false
}
