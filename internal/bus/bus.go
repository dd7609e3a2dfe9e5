// Package bus is the in-process event transport between the ledger and the
// domains that react to it.
//
// Delivery is synchronous on the publisher's goroutine. Subscribers of one
// topic run in subscription order; an error or panic in one subscriber is
// logged and the remaining subscribers still run. Nothing is persisted, so a
// listener that was not subscribed when an event was published never sees it.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type subscriber struct {
	id   uint64
	name string
	fn   func(ctx context.Context, e Event) error
}

// Bus dispatches events to subscribers by topic.
//
// Thread-safety: Subscribe and Publish may be called from any goroutine.
// Publish snapshots the subscriber list, so a handler may publish or
// subscribe without deadlocking.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Topic][]subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscriber)}
}

// Subscribe registers fn for events of type E and returns a function that
// removes the subscription. name identifies the subscriber in logs.
func Subscribe[E Event](b *Bus, name string, fn func(ctx context.Context, e E) error) (unsubscribe func()) {
	var zero E
	return b.subscribe(zero.Topic(), name, func(ctx context.Context, e Event) error {
		typed, ok := e.(E)
		if !ok {
			return fmt.Errorf("bus: %s delivered %T to %s", e.Topic(), e, name)
		}
		return fn(ctx, typed)
	})
}

func (b *Bus) subscribe(topic Topic, name string, fn func(ctx context.Context, e Event) error) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscriber{id: id, name: name, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, s := range subs {
			if s.id == id {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every current subscriber of its topic and returns
// the number of subscribers that failed.
func (b *Bus) Publish(ctx context.Context, e Event) (failed int) {
	b.mu.Lock()
	subs := b.subs[e.Topic()]
	b.mu.Unlock()

	slog.Debug("publish", "topic", e.Topic(), "subscribers", len(subs))
	for _, s := range subs {
		if err := deliver(ctx, s, e); err != nil {
			failed++
			slog.Error("subscriber failed",
				"topic", e.Topic(),
				"subscriber", s.name,
				"error", err,
			)
		}
	}
	return failed
}

// Subscribers returns the number of subscribers of topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func deliver(ctx context.Context, s subscriber, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.fn(ctx, e)
}
