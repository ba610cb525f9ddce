package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndLast(t *testing.T) {
	h := NewHistory(10)

	_, ok := h.LastCheck()
	assert.False(t, ok)

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	h.Append(CheckRecord{Timestamp: base, PendingCount: 2})
	h.Append(CheckRecord{Timestamp: base.Add(time.Minute), PendingCount: 0})

	last, ok := h.LastCheck()
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Minute), last.Timestamp)
	assert.Equal(t, 0, last.PendingCount)
	assert.Len(t, h.Records(), 2)
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(10)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 11; i++ {
		h.Append(CheckRecord{Timestamp: base.Add(time.Duration(i) * time.Minute), PendingCount: i})
	}

	records := h.Records()
	require.Len(t, records, 10)
	// the first tick is gone, order is oldest to newest
	assert.Equal(t, 1, records[0].PendingCount)
	assert.Equal(t, 10, records[9].PendingCount)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Timestamp.Before(records[i].Timestamp))
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 25; i++ {
		h.Append(CheckRecord{PendingCount: i})
	}
	assert.Len(t, h.Records(), DefaultHistorySize)
}

func TestHistoryRecordsReturnsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Append(CheckRecord{PendingCount: 1})

	records := h.Records()
	records[0].PendingCount = 99

	fresh := h.Records()
	assert.Equal(t, 1, fresh[0].PendingCount)
}
