package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCutoff(t *testing.T) {
	now := time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC)

	cutoff, err := MakeCutoff(now, 90)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), cutoff)

	same, err := MakeCutoff(now, 0)
	require.NoError(t, err)
	assert.Equal(t, now, same)

	// A non-UTC instant is normalized, not shifted.
	tokyo := now.In(time.FixedZone("JST", 9*3600))
	cutoff, err = MakeCutoff(tokyo, 90)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cutoff.Location())
	assert.True(t, cutoff.Equal(time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)))

	_, err = MakeCutoff(now, -1)
	assert.ErrorIs(t, err, ErrInvalidRetention)
	assert.True(t, IsValidation(err))
}

func TestIdentifyOld(t *testing.T) {
	cutoff := time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)
	zone := time.FixedZone("UTC-3", -3*3600)

	events := []EventRef{
		{ID: 5, OccurredAt: cutoff.Add(-time.Second)},
		{ID: 1, OccurredAt: cutoff},
		{ID: 9, OccurredAt: cutoff.Add(-48 * time.Hour)},
		{ID: 2, OccurredAt: cutoff.Add(time.Hour)},
		// 20:59:59 on the 12th at UTC-3 is 23:59:59 UTC: old.
		{ID: 7, OccurredAt: time.Date(2025, 8, 12, 20, 59, 59, 0, zone)},
		// 21:00 at UTC-3 is exactly the cutoff: not old.
		{ID: 8, OccurredAt: time.Date(2025, 8, 12, 21, 0, 0, 0, zone)},
	}

	old, err := IdentifyOld(events, cutoff)
	require.NoError(t, err)

	ids := make([]int64, 0, len(old))
	for _, e := range old {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{5, 9, 7}, ids, "input order preserved")
}

func TestIdentifyOld_Malformed(t *testing.T) {
	cutoff := time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)

	_, err := IdentifyOld([]EventRef{{ID: 0, OccurredAt: cutoff}}, cutoff)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = IdentifyOld([]EventRef{{ID: 3}}, cutoff)
	assert.ErrorIs(t, err, ErrInvalidEvent)
	assert.True(t, IsValidation(err))

	old, err := IdentifyOld(nil, cutoff)
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestBatchPlan(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		batchSize int
		want      []Batch
	}{
		{"empty", 0, 10, []Batch{}},
		{"remainder", 25, 10, []Batch{{0, 10}, {10, 10}, {20, 5}}},
		{"exact", 20, 10, []Batch{{0, 10}, {10, 10}}},
		{"smaller than batch", 3, 10, []Batch{{0, 3}}},
		{"batch of one", 3, 1, []Batch{{0, 1}, {1, 1}, {2, 1}}},
		{"audit example", 101, 20, []Batch{{0, 20}, {20, 20}, {40, 20}, {60, 20}, {80, 20}, {100, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BatchPlan(tt.total, tt.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatchPlan_Partitions(t *testing.T) {
	for total := 0; total <= 60; total++ {
		for size := 1; size <= 13; size++ {
			plan, err := BatchPlan(total, size)
			require.NoError(t, err)

			next, sum := 0, 0
			for i, b := range plan {
				require.Equal(t, next, b.Offset, "gap or overlap at batch %d", i)
				require.LessOrEqual(t, b.Limit, size)
				require.Greater(t, b.Limit, 0)
				if i < len(plan)-1 {
					require.Equal(t, size, b.Limit)
				}
				next += b.Limit
				sum += b.Limit
			}
			require.Equal(t, total, sum)
		}
	}
}

func TestBatchPlan_Invalid(t *testing.T) {
	_, err := BatchPlan(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidBatch)

	_, err = BatchPlan(10, 0)
	assert.ErrorIs(t, err, ErrInvalidBatch)
	assert.True(t, IsValidation(err))
}

func TestParseRetentionMode(t *testing.T) {
	m, err := ParseRetentionMode("ARCHIVE")
	require.NoError(t, err)
	assert.Equal(t, RetentionArchive, m)

	_, err = ParseRetentionMode("shred")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
