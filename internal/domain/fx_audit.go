package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateEvent is one observation in the FX audit trail.
type ExchangeRateEvent struct {
	ID         int64
	Code       CurrencyCode
	Rate       decimal.Decimal
	OccurredAt time.Time
	Policy     PolicyMode
	Source     *string
}

// Ref returns the shape the TTL planner works on.
func (e *ExchangeRateEvent) Ref() EventRef {
	return EventRef{ID: e.ID, OccurredAt: e.OccurredAt}
}

// EventRef is the minimal view of an audit event needed for TTL planning.
type EventRef struct {
	ID         int64
	OccurredAt time.Time
}

// Batch is one page of a larger set.
type Batch struct {
	Offset int
	Limit  int
}

// RetentionMode decides what happens to expired audit events.
type RetentionMode string

const (
	RetentionDelete  RetentionMode = "delete"
	RetentionArchive RetentionMode = "archive"
)

func ParseRetentionMode(raw string) (RetentionMode, error) {
	switch RetentionMode(strings.ToLower(strings.TrimSpace(raw))) {
	case RetentionDelete:
		return RetentionDelete, nil
	case RetentionArchive:
		return RetentionArchive, nil
	default:
		return "", NewValidationError(ErrInvalidInput, "mode", "unknown retention mode %q", raw)
	}
}

// MakeCutoff returns now minus retentionDays, in UTC.
func MakeCutoff(now time.Time, retentionDays int) (time.Time, error) {
	if retentionDays < 0 {
		return time.Time{}, NewValidationError(ErrInvalidRetention, "retention_days", "got %d", retentionDays)
	}

	at, err := NormalizeTime(now, "now")
	if err != nil {
		return time.Time{}, err
	}

	return at.AddDate(0, 0, -retentionDays), nil
}

// IdentifyOld returns the events strictly older than cutoff, in input order.
// A malformed event fails the whole call.
func IdentifyOld(events []EventRef, cutoff time.Time) ([]EventRef, error) {
	for i, e := range events {
		if e.ID <= 0 {
			return nil, NewValidationError(ErrInvalidEvent, "id", "event %d has id %d", i, e.ID)
		}
		if e.OccurredAt.IsZero() {
			return nil, NewValidationError(ErrInvalidEvent, "occurred_at", "event %d (id %d) has no timestamp", i, e.ID)
		}
	}

	cut := cutoff.UTC()
	old := make([]EventRef, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.UTC().Before(cut) {
			old = append(old, e)
		}
	}

	return old, nil
}

// BatchPlan partitions [0, total) into batches of batchSize; the last batch
// holds the remainder.
func BatchPlan(total, batchSize int) ([]Batch, error) {
	if total < 0 {
		return nil, NewValidationError(ErrInvalidBatch, "total", "got %d", total)
	}
	if batchSize < 1 {
		return nil, NewValidationError(ErrInvalidBatch, "batch_size", "got %d", batchSize)
	}

	plan := make([]Batch, 0, (total+batchSize-1)/batchSize)
	for offset := 0; offset < total; offset += batchSize {
		limit := batchSize
		if rest := total - offset; rest < limit {
			limit = rest
		}
		plan = append(plan, Batch{Offset: offset, Limit: limit})
	}

	return plan, nil
}
