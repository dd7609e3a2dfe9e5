// Package ident mints entity identifiers.
//
// Random IDs are UUIDv7 so they sort by creation time. IDs of entities that
// must exist at most once, such as the ledger transaction of one schedule
// occurrence, are content-addressed instead: the same inputs always hash to
// the same ID, so a retried write collides instead of duplicating.
package ident

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator mints new random identifiers.
type Generator interface {
	NewID() string
}

// UUIDv7 generates time-sortable UUIDv7 strings.
//
// Thread-safety: UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// NewID panics if the system random source fails.
func (UUIDv7) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Sequence returns prefix-0001, prefix-0002, ... for deterministic tests and
// scenario runs.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}

// Fixed returns the given IDs in order and panics once they run out, which
// flags a test that created more entities than it expected.
type Fixed struct {
	mu  sync.Mutex
	ids []string
	idx int
}

func NewFixed(ids ...string) *Fixed {
	return &Fixed{ids: ids}
}

func (f *Fixed) NewID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.ids) {
		panic("ident.Fixed: all ids exhausted")
	}
	id := f.ids[f.idx]
	f.idx++
	return id
}
