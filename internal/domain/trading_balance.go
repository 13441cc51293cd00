package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TradingRow is the raw per-currency position.
type TradingRow struct {
	Currency CurrencyCode
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Net      decimal.Decimal
}

// DetailedTradingRow adds the base-currency equivalents of a TradingRow.
type DetailedTradingRow struct {
	TradingRow
	UsedRate   decimal.Decimal
	DebitBase  decimal.Decimal
	CreditBase decimal.Decimal
	NetBase    decimal.Decimal
}

// RateConvention states what a stored rate quotes.
type RateConvention string

const (
	// BasePerUnit: one unit of the currency is worth rate units of base.
	BasePerUnit RateConvention = "base_per_unit"
	// UnitsPerBase: one unit of base buys rate units of the currency.
	UnitsPerBase RateConvention = "units_per_base"
)

// ConversionMode picks where rounding happens in a detailed aggregation.
type ConversionMode string

const (
	// ConvertTotals sums per currency first, then converts once.
	ConvertTotals ConversionMode = "totals"
	// ConvertPerLine converts and rounds every line before summing.
	ConvertPerLine ConversionMode = "per_line"
)

// TradingOptions configures a detailed aggregation.
type TradingOptions struct {
	Base       CurrencyCode
	Convention RateConvention
	Mode       ConversionMode
}

// TradingAggregator nets entry lines per currency.
type TradingAggregator struct {
	precision Precision
}

func NewTradingAggregator(p Precision) *TradingAggregator {
	return &TradingAggregator{precision: p}
}

// Raw groups lines by currency and returns rows sorted by code.
func (a *TradingAggregator) Raw(lines []EntryLine) ([]TradingRow, error) {
	if err := checkLines(lines); err != nil {
		return nil, err
	}

	byCode := make(map[CurrencyCode]*TradingRow)
	for _, l := range lines {
		row := rowFor(byCode, l.currency)
		if l.side == Debit {
			row.Debit = row.Debit.Add(l.amount)
		} else {
			row.Credit = row.Credit.Add(l.amount)
		}
	}

	rows := make([]TradingRow, 0, len(byCode))
	for _, row := range byCode {
		row.Debit = a.precision.Money(row.Debit)
		row.Credit = a.precision.Money(row.Credit)
		row.Net = row.Debit.Sub(row.Credit)
		rows = append(rows, *row)
	}
	sortRows(rows)

	return rows, nil
}

// Detailed converts each raw row into the base currency using the currencies'
// stored rates. A currency without a rate is an error when it has activity.
func (a *TradingAggregator) Detailed(lines []EntryLine, currencies []*Currency, opts TradingOptions) ([]DetailedTradingRow, error) {
	opts, err := a.checkOptions(opts)
	if err != nil {
		return nil, err
	}

	if opts.Mode == ConvertPerLine {
		return a.detailedPerLine(lines, currencies, opts)
	}

	raw, err := a.Raw(lines)
	if err != nil {
		return nil, err
	}

	rates := ratesByCode(currencies)
	out := make([]DetailedTradingRow, 0, len(raw))
	for _, row := range raw {
		rate, err := a.usedRate(row, rates, opts.Base)
		if err != nil {
			return nil, err
		}

		out = append(out, DetailedTradingRow{
			TradingRow: row,
			UsedRate:   rate,
			DebitBase:  a.precision.Money(a.convert(row.Debit, rate, opts.Convention)),
			CreditBase: a.precision.Money(a.convert(row.Credit, rate, opts.Convention)),
			NetBase:    a.precision.Money(a.convert(row.Net, rate, opts.Convention)),
		})
	}

	return out, nil
}

func (a *TradingAggregator) detailedPerLine(lines []EntryLine, currencies []*Currency, opts TradingOptions) ([]DetailedTradingRow, error) {
	raw, err := a.Raw(lines)
	if err != nil {
		return nil, err
	}

	rates := ratesByCode(currencies)
	used := make(map[CurrencyCode]decimal.Decimal, len(raw))
	for _, row := range raw {
		rate, err := a.usedRate(row, rates, opts.Base)
		if err != nil {
			return nil, err
		}
		used[row.Currency] = rate
	}

	type baseSums struct{ debit, credit decimal.Decimal }
	sums := make(map[CurrencyCode]*baseSums, len(raw))
	for _, l := range lines {
		s, ok := sums[l.currency]
		if !ok {
			s = &baseSums{debit: decimal.Zero, credit: decimal.Zero}
			sums[l.currency] = s
		}
		converted := a.precision.Money(a.convert(l.amount, used[l.currency], opts.Convention))
		if l.side == Debit {
			s.debit = s.debit.Add(converted)
		} else {
			s.credit = s.credit.Add(converted)
		}
	}

	out := make([]DetailedTradingRow, 0, len(raw))
	for _, row := range raw {
		s := sums[row.Currency]
		out = append(out, DetailedTradingRow{
			TradingRow: row,
			UsedRate:   used[row.Currency],
			DebitBase:  s.debit,
			CreditBase: s.credit,
			NetBase:    s.debit.Sub(s.credit),
		})
	}

	return out, nil
}

func (a *TradingAggregator) checkOptions(opts TradingOptions) (TradingOptions, error) {
	base, err := NewCurrencyCode(opts.Base.String())
	if err != nil {
		return opts, err
	}
	opts.Base = base

	switch opts.Convention {
	case "":
		opts.Convention = BasePerUnit
	case BasePerUnit, UnitsPerBase:
	default:
		return opts, NewValidationError(ErrInvalidInput, "convention", "unknown rate convention %q", opts.Convention)
	}

	switch opts.Mode {
	case "":
		opts.Mode = ConvertTotals
	case ConvertTotals, ConvertPerLine:
	default:
		return opts, NewValidationError(ErrInvalidInput, "mode", "unknown conversion mode %q", opts.Mode)
	}

	return opts, nil
}

func (a *TradingAggregator) usedRate(row TradingRow, rates map[CurrencyCode]*Currency, base CurrencyCode) (decimal.Decimal, error) {
	if row.Currency == base {
		return decimal.NewFromInt(1), nil
	}

	c, ok := rates[row.Currency]
	if ok {
		if rate, has := c.Rate(); has {
			return a.precision.Rate(rate), nil
		}
	}

	if row.Debit.IsZero() && row.Credit.IsZero() {
		return decimal.Zero, nil
	}

	return decimal.Zero, NewDomainError(ErrMissingRate, row.Currency.String(), "no rate to base %s", base)
}

func (a *TradingAggregator) convert(amount, rate decimal.Decimal, convention RateConvention) decimal.Decimal {
	if convention == UnitsPerBase {
		if rate.IsZero() {
			return decimal.Zero
		}
		return a.precision.Div(amount, rate)
	}
	return amount.Mul(rate)
}

// RowsFromTotals builds raw rows from per-currency totals, e.g. ledger-wide
// sums computed by storage.
func (a *TradingAggregator) RowsFromTotals(debits, credits map[CurrencyCode]decimal.Decimal) []TradingRow {
	byCode := make(map[CurrencyCode]*TradingRow)
	for code, d := range debits {
		rowFor(byCode, code).Debit = d
	}
	for code, c := range credits {
		rowFor(byCode, code).Credit = c
	}

	rows := make([]TradingRow, 0, len(byCode))
	for _, row := range byCode {
		row.Debit = a.precision.Money(row.Debit)
		row.Credit = a.precision.Money(row.Credit)
		row.Net = row.Debit.Sub(row.Credit)
		rows = append(rows, *row)
	}
	sortRows(rows)

	return rows
}

func checkLines(lines []EntryLine) error {
	for i, l := range lines {
		if l.IsZero() || !l.side.Valid() {
			return NewValidationError(ErrInvalidInput, "lines", "element %d is not an entry line", i)
		}
	}
	return nil
}

func rowFor(byCode map[CurrencyCode]*TradingRow, code CurrencyCode) *TradingRow {
	row, ok := byCode[code]
	if !ok {
		row = &TradingRow{Currency: code, Debit: decimal.Zero, Credit: decimal.Zero, Net: decimal.Zero}
		byCode[code] = row
	}
	return row
}

func ratesByCode(currencies []*Currency) map[CurrencyCode]*Currency {
	m := make(map[CurrencyCode]*Currency, len(currencies))
	for _, c := range currencies {
		if c != nil {
			m[c.Code] = c
		}
	}
	return m
}

func sortRows(rows []TradingRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Currency < rows[j].Currency })
}
