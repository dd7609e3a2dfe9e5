package bus

import (
	"context"
	"sync"
)

// Recorder keeps every event published on a bus, in delivery order.
// Attach it before the listeners so it sees each event before they react.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	detach []func()
}

// NewRecorder subscribes a recorder to every topic of b.
func NewRecorder(b *Bus) *Recorder {
	r := &Recorder{}
	for _, t := range Topics() {
		r.detach = append(r.detach, b.subscribe(t, "recorder", r.record))
	}
	return r
}

func (r *Recorder) record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of topic were recorded.
func (r *Recorder) Count(topic Topic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Topic() == topic {
			n++
		}
	}
	return n
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Close unsubscribes the recorder.
func (r *Recorder) Close() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

// Of returns the recorded events of type E.
func Of[E Event](r *Recorder) []E {
	var out []E
	for _, e := range r.Events() {
		if typed, ok := e.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}
