package domain

import (
	"strings"
	"time"
)

// AccountName is a colon-delimited hierarchical path such as Assets:Cash:Wallet.
type AccountName struct {
	full     string
	segments []string
}

// NewAccountName parses and validates a full account path.
func NewAccountName(raw string) (AccountName, error) {
	full := strings.TrimSpace(raw)

	if full == "" {
		return AccountName{}, NewValidationError(ErrInvalidAccountName, "name", "name cannot be empty")
	}

	if len(full) > MaxAccountNameLength {
		return AccountName{}, NewValidationError(ErrInvalidAccountName, "name", "path exceeds %d characters", MaxAccountNameLength)
	}

	if strings.HasPrefix(full, AccountSeparator) || strings.HasSuffix(full, AccountSeparator) {
		return AccountName{}, NewValidationError(ErrInvalidAccountName, full, "leading or trailing delimiter")
	}

	if strings.Contains(full, AccountSeparator+AccountSeparator) {
		return AccountName{}, NewValidationError(ErrInvalidAccountName, full, "doubled delimiter")
	}

	segments := strings.Split(full, AccountSeparator)
	for i, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return AccountName{}, NewValidationError(ErrInvalidAccountName, full, "segment %d is blank", i+1)
		}
		if len(seg) > MaxAccountSegmentLength {
			return AccountName{}, NewValidationError(ErrInvalidAccountName, full, "segment %d exceeds %d characters", i+1, MaxAccountSegmentLength)
		}
	}

	return AccountName{full: full, segments: segments}, nil
}

// MustAccountName panics on an invalid path. Intended for tests and constants.
func MustAccountName(raw string) AccountName {
	n, err := NewAccountName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

func (n AccountName) String() string {
	return n.full
}

// Name is the last segment.
func (n AccountName) Name() string {
	if len(n.segments) == 0 {
		return ""
	}
	return n.segments[len(n.segments)-1]
}

// Parent returns the path without its last segment; ok is false for roots.
func (n AccountName) Parent() (AccountName, bool) {
	if len(n.segments) <= 1 {
		return AccountName{}, false
	}
	segs := n.segments[:len(n.segments)-1]
	return AccountName{full: strings.Join(segs, AccountSeparator), segments: segs}, true
}

// Depth is the number of segments.
func (n AccountName) Depth() int {
	return len(n.segments)
}

func (n AccountName) IsZero() bool {
	return n.full == ""
}

func (n AccountName) Equal(o AccountName) bool {
	return n.full == o.full
}

// Account is a ledger account identified by its unique full name.
type Account struct {
	ID        string
	FullName  AccountName
	Currency  CurrencyCode
	ParentID  *string
	CreatedAt time.Time
}

// NewAccount validates name and currency.
func NewAccount(fullName, currency string) (*Account, error) {
	name, err := NewAccountName(fullName)
	if err != nil {
		return nil, err
	}

	code, err := NewCurrencyCode(currency)
	if err != nil {
		return nil, err
	}

	return &Account{FullName: name, Currency: code}, nil
}
