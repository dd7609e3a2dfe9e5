package scheduler

import (
	"sync"

	"github.com/OybekDeveloper/leora/internal/date"
)

// State is the in-process single-flight and once-per-day guard.
//
// It is owned by whoever constructs the Processor. The persisted
// scheduler_state row survives restarts; State covers the window in which
// a run is in flight and has not yet written that row.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type State struct {
	mu            sync.Mutex
	running       bool
	lastProcessed date.Date
}

// NewState creates an idle state that has processed nothing yet.
func NewState() *State {
	return &State{}
}

// TryBegin claims the run for today. It returns false when another run is
// in flight or today was already processed by this process.
func (s *State) TryBegin(today date.Date) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.lastProcessed == today {
		return false
	}
	s.running = true
	return true
}

// Finish releases the run. When processed is true, today is remembered as
// done.
func (s *State) Finish(today date.Date, processed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if processed {
		s.lastProcessed = today
	}
}

// LastProcessed returns the last day this process completed a run for.
func (s *State) LastProcessed() date.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProcessed
}

// Running reports whether a run is in flight.
func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
