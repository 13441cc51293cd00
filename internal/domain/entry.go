package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EntrySide is the side of an entry line.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// ParseEntrySide accepts DEBIT/CREDIT in any case, plus the short forms D/C.
func ParseEntrySide(raw string) (EntrySide, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBIT", "D", "DR":
		return Debit, nil
	case "CREDIT", "C", "CR":
		return Credit, nil
	default:
		return "", NewValidationError(ErrInvalidSide, "side", "got %q", raw)
	}
}

func (s EntrySide) Valid() bool {
	return s == Debit || s == Credit
}

// Sign is +1 for debits and -1 for credits.
func (s EntrySide) Sign() decimal.Decimal {
	if s == Credit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// EntryLine is one leg of a transaction in a single currency. Lines are
// immutable once built; use NewEntryLine.
type EntryLine struct {
	side     EntrySide
	account  AccountName
	amount   decimal.Decimal
	currency CurrencyCode
	rate     *ExchangeRate
}

// EntryLineInput carries raw line fields.
type EntryLineInput struct {
	Side     EntrySide
	Account  string
	Amount   decimal.Decimal
	Currency string
	Rate     *decimal.Decimal
}

// NewEntryLine validates in and quantizes the amount to the money scale.
func NewEntryLine(in EntryLineInput, p Precision) (EntryLine, error) {
	if !in.Side.Valid() {
		return EntryLine{}, NewValidationError(ErrInvalidSide, "side", "got %q", in.Side)
	}

	name, err := NewAccountName(in.Account)
	if err != nil {
		return EntryLine{}, err
	}

	code, err := NewCurrencyCode(in.Currency)
	if err != nil {
		return EntryLine{}, err
	}

	if err := ValidatePositive(in.Amount, name.String()); err != nil {
		return EntryLine{}, err
	}

	amount := p.Money(in.Amount)
	if !amount.IsPositive() {
		return EntryLine{}, NewValidationError(ErrInvalidAmount, name.String(), "%s rounds to zero", in.Amount.String())
	}

	line := EntryLine{side: in.Side, account: name, amount: amount, currency: code}

	if in.Rate != nil {
		rate, err := NewExchangeRate(*in.Rate, p)
		if err != nil {
			return EntryLine{}, err
		}
		line.rate = &rate
	}

	return line, nil
}

func (l EntryLine) Side() EntrySide         { return l.side }
func (l EntryLine) Account() AccountName    { return l.account }
func (l EntryLine) Amount() decimal.Decimal { return l.amount }
func (l EntryLine) Currency() CurrencyCode  { return l.currency }

// Rate returns the line's exchange rate, if one was recorded.
func (l EntryLine) Rate() (ExchangeRate, bool) {
	if l.rate == nil {
		return ExchangeRate{}, false
	}
	return *l.rate, true
}

// Signed returns the amount with debits positive and credits negative.
func (l EntryLine) Signed() decimal.Decimal {
	return l.amount.Mul(l.side.Sign())
}

func (l EntryLine) IsZero() bool {
	return l.side == "" && l.account.IsZero()
}
