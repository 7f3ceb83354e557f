package telemetry

import (
	"sync"
	"time"
)

// Mark is one named point in a request's lifetime, measured from the timer's
// start.
type Mark struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsedNs"`
}

// Timer collects ordered marks across pipeline phases. Safe for concurrent
// use, though marks within one request are normally sequential.
type Timer struct {
	start time.Time
	now   func() time.Time

	mu    sync.Mutex
	marks []Mark
}

// NewTimer starts a timer at the current time.
func NewTimer() *Timer {
	return newTimerAt(time.Now, time.Now())
}

func newTimerAt(now func() time.Time, start time.Time) *Timer {
	return &Timer{start: start, now: now}
}

// Mark records a named point.
func (t *Timer) Mark(name string) {
	elapsed := t.now().Sub(t.start)
	t.mu.Lock()
	t.marks = append(t.marks, Mark{Name: name, Elapsed: elapsed})
	t.mu.Unlock()
}

// Marks returns a snapshot of the recorded marks in order.
func (t *Timer) Marks() []Mark {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Mark, len(t.marks))
	copy(out, t.marks)
	return out
}

// Total returns the elapsed time since the timer started.
func (t *Timer) Total() time.Duration {
	return t.now().Sub(t.start)
}
