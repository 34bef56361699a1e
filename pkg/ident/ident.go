// Package ident provides opaque string id generation for graph entities.
//
// The store treats ids as opaque; the only contract is uniqueness per call.
// The default generator produces UUIDv7 values, which are time-ordered, so
// id order roughly follows creation order - convenient for debugging and
// for stable fixtures.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces one unique opaque string per call.
type Generator interface {
	NewID() string
}

// UUIDGenerator produces time-ordered UUIDv7 ids.
type UUIDGenerator struct{}

// NewID returns a fresh UUIDv7, falling back to a random UUIDv4 in the
// (practically unreachable) case the v7 source fails.
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Sequence is a deterministic generator for tests: prefix-0, prefix-1, ...
type Sequence struct {
	Prefix  string
	counter atomic.Int64
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	n := s.counter.Add(1) - 1
	return fmt.Sprintf("%s-%d", s.Prefix, n)
}

// Default is the generator used when none is configured.
var Default Generator = UUIDGenerator{}
