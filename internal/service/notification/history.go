package notification

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the poll-history ledger.
const DefaultHistorySize = 10

// CheckRecord is one poll execution: when it ran and how many due doses it found.
type CheckRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	PendingCount int       `json:"pending_count"`
}

// History is a bounded, oldest-evicted-first record of recent poll executions.
// It is purely diagnostic state owned by the poller and injected into the
// health surface; notification correctness never consults it.
type History struct {
	mu       sync.Mutex
	records  []CheckRecord
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity}
}

// Append records a poll execution, evicting the oldest entry on overflow.
func (h *History) Append(rec CheckRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > h.capacity {
		h.records = h.records[1:]
	}
}

// LastCheck returns the most recent record, if any.
func (h *History) LastCheck() (CheckRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) == 0 {
		return CheckRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of the ledger, oldest to newest.
func (h *History) Records() []CheckRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]CheckRecord, len(h.records))
	copy(out, h.records)
	return out
}
