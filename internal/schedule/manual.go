package schedule

import (
	"sync"
	"time"
)

// Manual is a virtual clock for tests. Time only moves on Advance.
type Manual struct {
	mu  sync.Mutex
	now time.Time
	q   queue
}

// NewManual starts the virtual clock at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	return m.q.push(m.Now().Add(d), fn)
}

// Advance moves the clock forward by d, running every task that falls due on the way
// (including tasks scheduled by tasks) with Now set to the task's deadline.
func (m *Manual) Advance(d time.Duration) {
	target := m.Now().Add(d)
	for {
		t := m.q.popDue(target)
		if t == nil {
			break
		}
		m.set(t.at)
		t.fn()
	}
	m.set(target)
}

// Pending reports the number of scheduled tasks.
func (m *Manual) Pending() int {
	return m.q.len()
}

func (m *Manual) set(at time.Time) {
	m.mu.Lock()
	if at.After(m.now) {
		m.now = at
	}
	m.mu.Unlock()
}
