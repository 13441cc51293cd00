package domain

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"
)

// SortOrder is the direction of a ledger listing.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// LedgerQueryInput carries unvalidated listing arguments. Metadata must be a
// map with string keys when set.
type LedgerQueryInput struct {
	Account  string
	Start    *time.Time
	End      *time.Time
	Metadata any
	Offset   int
	Limit    int
	Order    string
}

// LedgerQuery is a validated transaction-history listing.
type LedgerQuery struct {
	Account  AccountName
	Start    *time.Time
	End      *time.Time
	Metadata map[string]any
	Offset   int
	Limit    int
	Order    SortOrder
}

// NewLedgerQuery validates in. Nothing is read from storage before this
// succeeds.
func NewLedgerQuery(in LedgerQueryInput) (LedgerQuery, error) {
	account, err := NewAccountName(in.Account)
	if err != nil {
		return LedgerQuery{}, err
	}

	q := LedgerQuery{Account: account, Offset: in.Offset, Limit: in.Limit}

	if in.Start != nil {
		s := in.Start.UTC()
		q.Start = &s
	}
	if in.End != nil {
		e := in.End.UTC()
		q.End = &e
	}
	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return LedgerQuery{}, NewValidationError(ErrInvalidQuery, "start", "start %s is after end %s", q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}

	if in.Offset < 0 {
		return LedgerQuery{}, NewValidationError(ErrInvalidQuery, "offset", "got %d", in.Offset)
	}
	if in.Limit < 0 {
		return LedgerQuery{}, NewValidationError(ErrInvalidQuery, "limit", "got %d", in.Limit)
	}

	switch SortOrder(strings.ToUpper(strings.TrimSpace(in.Order))) {
	case OrderAsc, "":
		q.Order = OrderAsc
	case OrderDesc:
		q.Order = OrderDesc
	default:
		return LedgerQuery{}, NewValidationError(ErrInvalidQuery, "order", "must be ASC or DESC, got %q", in.Order)
	}

	md, err := metadataFilter(in.Metadata)
	if err != nil {
		return LedgerQuery{}, err
	}
	q.Metadata = md

	return q, nil
}

func metadataFilter(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return copyMetadata(m), nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	default:
		return nil, NewValidationError(ErrInvalidQuery, "metadata", "filter must be a mapping, got %T", raw)
	}
}

// Matches reports whether tx falls in the query's window, touches its
// account and carries every metadata key/value pair.
func (q LedgerQuery) Matches(tx *Transaction) bool {
	if !tx.Touches(q.Account) {
		return false
	}
	if q.Start != nil && tx.OccurredAt.Before(*q.Start) {
		return false
	}
	if q.End != nil && tx.OccurredAt.After(*q.End) {
		return false
	}
	for k, want := range q.Metadata {
		got, ok := tx.Metadata[k]
		if !ok || !metadataEqual(got, want) {
			return false
		}
	}
	return true
}

// Apply filters, orders and pages txs in memory. Ties on OccurredAt are
// broken by Sequence.
func (q LedgerQuery) Apply(txs []*Transaction) []*Transaction {
	matched := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.Matches(tx) {
			matched = append(matched, tx)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			if q.Order == OrderDesc {
				return a.OccurredAt.After(b.OccurredAt)
			}
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if q.Order == OrderDesc {
			return a.Sequence > b.Sequence
		}
		return a.Sequence < b.Sequence
	})

	if q.Limit == 0 || q.Offset >= len(matched) {
		return []*Transaction{}
	}

	end := len(matched)
	if q.Limit < end-q.Offset {
		end = q.Offset + q.Limit
	}

	return matched[q.Offset:end]
}

// metadataEqual compares a and b as JSON values, so 42 and 42.0 match
// while "1" and 1 do not.
func metadataEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	na, err := normalizeJSON(a)
	if err != nil {
		return false
	}
	nb, err := normalizeJSON(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
