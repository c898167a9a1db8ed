// Package turn drives the roll -> move -> arrive -> event -> next-turn cycle
// over a scheduler abstraction, bridging asynchronous presentation signals
// back into game logic.
package turn

import (
	"sync"
	"time"
)

// Scheduler defers a callback. The engine never blocks; every wait in the
// turn cycle is expressed through After.
type Scheduler interface {
	// After schedules fn to run once after d. The returned cancel function
	// prevents fn from running; it is safe to call more than once.
	//
	// Precondition: fn must not be nil.
	After(d time.Duration, fn func()) (cancel func())
}

// RealScheduler runs callbacks on timer goroutines.
type RealScheduler struct{}

// NewRealScheduler returns the production Scheduler.
func NewRealScheduler() *RealScheduler {
	return &RealScheduler{}
}

// After schedules fn after d using time.AfterFunc.
//
// Postcondition: fn runs once after d unless cancel is called first.
func (s *RealScheduler) After(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler queues callbacks and runs them only when the test driver
// says so, in FIFO scheduling order. Durations are recorded but never waited
// on, so a full turn cycle can be driven synchronously.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []*manualTask
}

type manualTask struct {
	fn       func()
	canceled bool
}

// NewManualScheduler returns an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After queues fn; it will not run until RunNext or Drain is called.
func (s *ManualScheduler) After(_ time.Duration, fn func()) (cancel func()) {
	t := &manualTask{fn: fn}
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.canceled = true
		s.mu.Unlock()
	}
}

// Pending returns the number of queued, non-canceled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if !t.canceled {
			n++
		}
	}
	return n
}

// RunNext runs the oldest non-canceled callback.
//
// Postcondition: Returns true iff a callback ran. Callbacks scheduled by the
// callback itself join the back of the queue.
func (s *ManualScheduler) RunNext() bool {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return false
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		if t.canceled {
			continue
		}
		t.fn()
		return true
	}
}

// Drain runs callbacks until the queue is empty, including callbacks
// scheduled while draining.
//
// Postcondition: Returns the number of callbacks run.
func (s *ManualScheduler) Drain() int {
	n := 0
	for s.RunNext() {
		n++
	}
	return n
}
