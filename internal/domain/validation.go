package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidRate        = errors.New("exchange rate must be positive")
	ErrInvalidSide        = errors.New("invalid entry side")
	ErrEmptyTransaction   = errors.New("transaction has no lines")
	ErrMetadataTooLarge   = errors.New("metadata size exceeds limit")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidEvent       = errors.New("invalid exchange rate event")
	ErrInvalidRetention   = errors.New("retention days must be non-negative")
	ErrInvalidBatch       = errors.New("invalid batch parameters")
	ErrInvalidQuery       = errors.New("invalid ledger query")
	ErrInvalidPolicy      = errors.New("invalid exchange rate policy")
	ErrInvalidPrecision   = errors.New("invalid precision")
	ErrInvalidInput       = errors.New("invalid input")
)

// Validation constants
const (
	AccountSeparator        = ":"
	MaxAccountSegmentLength = 64
	MaxAccountNameLength    = 512
	MinCurrencyCodeLength   = 2
	MaxCurrencyCodeLength   = 10
	MaxMetadataSize         = 10240 // 10KB
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9_]+$`)

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return NewValidationError(ErrMetadataTooLarge, "metadata", "%d bytes exceeds limit of %d bytes", size, MaxMetadataSize)
	}

	return nil
}

// ValidatePositive rejects zero and negative amounts.
func ValidatePositive(amount decimal.Decimal, field string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError(ErrInvalidAmount, field, "got %s", amount.String())
	}
	return nil
}

// NormalizeTime applies the single boundary rule for timestamps: a time in
// any location is converted to UTC, and the zero time is rejected.
func NormalizeTime(t time.Time, field string) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, NewValidationError(ErrInvalidTimestamp, field, "timestamp is required")
	}
	return t.UTC(), nil
}

// ParseTimestamp parses RFC 3339 input. A timestamp without an offset is
// read as UTC.
func ParseTimestamp(s string, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewValidationError(ErrInvalidTimestamp, field, "cannot parse %q", s)
}
