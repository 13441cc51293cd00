package usecase_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
)

var t0 = time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)

var nopLogger = zerolog.Nop()

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lineIn(side domain.EntrySide, account, amount, currency string) domain.EntryLineInput {
	return domain.EntryLineInput{Side: side, Account: account, Amount: dec(amount), Currency: currency}
}

// transfer builds a balanced two-line transaction.
func transfer(t *testing.T, at time.Time, debit, credit, amount, currency string) *domain.Transaction {
	t.Helper()

	p := domain.DefaultPrecision()
	d, err := domain.NewEntryLine(lineIn(domain.Debit, debit, amount, currency), p)
	require.NoError(t, err)
	c, err := domain.NewEntryLine(lineIn(domain.Credit, credit, amount, currency), p)
	require.NoError(t, err)

	tx, err := domain.NewTransaction(at, "", nil, []domain.EntryLine{d, c})
	require.NoError(t, err)
	return tx
}

func currency(t *testing.T, code string, base bool, rate string) *domain.Currency {
	t.Helper()

	c, err := domain.NewCurrency(code)
	require.NoError(t, err)
	c.IsBase = base
	if rate != "" {
		r, err := domain.ParseExchangeRate(rate, domain.DefaultPrecision())
		require.NoError(t, err)
		require.NoError(t, c.SetRate(r))
	}
	return c
}
