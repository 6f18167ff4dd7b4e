package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/threestones/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers created with AfterFunc only fire from Advance or Set, synchronously
// on the calling goroutine, in deadline order.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []*MockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// AfterFunc registers f to run once the clock has been advanced past d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &MockTimer{clock: c, deadline: c.CurrentTime.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration and fires due timers
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.CurrentTime.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set sets the clock to the given time and fires due timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.CurrentTime = t

	var due, pending []*MockTimer
	for _, timer := range c.timers {
		if !timer.deadline.After(t) {
			timer.fired = true
			due = append(due, timer)
		} else {
			pending = append(pending, timer)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, timer := range due {
		timer.fn()
	}
}

// PendingTimers returns how many timers are waiting to fire
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// MockTimer is the Timer returned by MockClock.AfterFunc
type MockTimer struct {
	clock    *MockClock
	deadline time.Time
	fn       func()
	fired    bool
	stopped  bool
}

// Stop removes the timer from its clock
func (t *MockTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, timer := range c.timers {
		if timer == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	return true
}
