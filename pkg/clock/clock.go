package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so schedule generation, due-dose selection and the
// poller can be tested against a deterministic source.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New returns a Clock backed by the system time.
func New() Clock { return systemClock{} }

// Mock is a settable Clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a Mock frozen at the given instant.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the mock to an absolute instant.
func (m *Mock) Set(now time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Advance moves the mock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
