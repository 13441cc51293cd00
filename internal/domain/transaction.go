package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a balanced, immutable journal entry.
type Transaction struct {
	ID          string
	Sequence    int64 // insertion order, assigned by storage
	OccurredAt  time.Time
	Description string
	Metadata    map[string]any
	lines       []EntryLine
}

// NewTransaction checks the double-entry law: for every currency present the
// debit sum equals the credit sum exactly.
func NewTransaction(occurredAt time.Time, description string, metadata map[string]any, lines []EntryLine) (*Transaction, error) {
	at, err := NormalizeTime(occurredAt, "occurred_at")
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, NewValidationError(ErrEmptyTransaction, "lines", "at least one line is required")
	}

	for i, l := range lines {
		if l.IsZero() {
			return nil, NewValidationError(ErrInvalidInput, "lines", "line %d is not a constructed entry line", i+1)
		}
	}

	if err := ValidateMetadata(metadata); err != nil {
		return nil, err
	}

	if err := checkBalanced(lines); err != nil {
		return nil, err
	}

	copied := make([]EntryLine, len(lines))
	copy(copied, lines)

	return &Transaction{
		OccurredAt:  at,
		Description: description,
		Metadata:    copyMetadata(metadata),
		lines:       copied,
	}, nil
}

// Lines returns a copy of the transaction's lines in order.
func (t *Transaction) Lines() []EntryLine {
	out := make([]EntryLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// Currencies returns the distinct currencies in the transaction, sorted.
func (t *Transaction) Currencies() []CurrencyCode {
	seen := make(map[CurrencyCode]bool)
	var out []CurrencyCode
	for _, l := range t.lines {
		if !seen[l.currency] {
			seen[l.currency] = true
			out = append(out, l.currency)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Touches reports whether any line posts to account.
func (t *Transaction) Touches(account AccountName) bool {
	for _, l := range t.lines {
		if l.account.Equal(account) {
			return true
		}
	}
	return false
}

func checkBalanced(lines []EntryLine) error {
	type sums struct{ debit, credit decimal.Decimal }

	totals := make(map[CurrencyCode]*sums)
	var order []CurrencyCode
	for _, l := range lines {
		s, ok := totals[l.currency]
		if !ok {
			s = &sums{debit: decimal.Zero, credit: decimal.Zero}
			totals[l.currency] = s
			order = append(order, l.currency)
		}
		if l.side == Debit {
			s.debit = s.debit.Add(l.amount)
		} else {
			s.credit = s.credit.Add(l.amount)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for _, code := range order {
		s := totals[code]
		if !s.debit.Equal(s.credit) {
			return NewDomainError(ErrUnbalanced, code.String(), "debits %s != credits %s", s.debit.String(), s.credit.String())
		}
	}

	return nil
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PostedLine is an entry line together with the transaction it belongs to.
type PostedLine struct {
	TransactionID string
	Sequence      int64
	OccurredAt    time.Time
	Line          EntryLine
}

// LinesFor flattens transactions into the posted lines touching account.
func LinesFor(txs []*Transaction, account AccountName) []PostedLine {
	var out []PostedLine
	for _, tx := range txs {
		for _, l := range tx.lines {
			if l.account.Equal(account) {
				out = append(out, PostedLine{TransactionID: tx.ID, Sequence: tx.Sequence, OccurredAt: tx.OccurredAt, Line: l})
			}
		}
	}
	return out
}

// BalanceAsOf sums the signed amounts of lines with OccurredAt <= asOf.
// later reports whether any line falls after asOf.
func BalanceAsOf(lines []PostedLine, asOf time.Time) (balance decimal.Decimal, later bool) {
	balance = decimal.Zero
	for _, pl := range lines {
		if pl.OccurredAt.After(asOf) {
			later = true
			continue
		}
		balance = balance.Add(pl.Line.Signed())
	}
	return balance, later
}
