// Package progress holds the shared 0-100 progress value of the in-flight transfer.
package progress

import (
	"sync"
	"sync/atomic"

	"ultradl/pkg/calc"
)

// Observer is notified with every new value.
type Observer func(percent int)

// State is the progress scalar. It reflects a single transfer, never a batch aggregate.
type State struct {
	value atomic.Int64

	mu        sync.RWMutex
	observers []Observer
}

// New returns a State at 0.
func New(observers ...Observer) *State {
	return &State{observers: observers}
}

// Observe registers o for future updates.
func (s *State) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, o)
}

// Set clamps percent to 0..100, stores it and notifies observers.
func (s *State) Set(percent int) {
	percent = min(max(percent, 0), 100)
	s.value.Store(int64(percent))

	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	for _, o := range observers {
		o(percent)
	}
}

// Reset sets the value back to 0.
func (s *State) Reset() {
	s.Set(0)
}

// Value returns the current percent.
func (s *State) Value() int {
	return int(s.value.Load())
}

// Progress accepts a 0..1 fraction from a transfer, so a State can be passed as its sink.
func (s *State) Progress(fraction float64) {
	s.Set(calc.Percent(fraction))
}
