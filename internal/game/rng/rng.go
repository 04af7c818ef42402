// Package rng provides the deterministic random stream that drives problem
// generation. Both participants of a duel derive their problem sequence from
// the shared match seed, so the stream must be reproduced bit-for-bit by
// every client implementation: a Mulberry32 generator whose initial state is
// a 31-polynomial rolling hash of the seed string.
package rng

import (
	"fmt"
	"math/rand"
	"time"
)

// Stream is a seeded Mulberry32 generator. Not safe for concurrent use; each
// generation run owns its own Stream.
type Stream struct {
	state uint32
}

// New seeds a Stream from an arbitrary string.
func New(seed string) *Stream {
	var h uint32
	for _, b := range []byte(seed) {
		h = h*31 + uint32(b)
	}
	return &Stream{state: h}
}

// Next returns the next value in [0, 1). The mixing constants are fixed by
// the cross-client contract and must not change.
func (s *Stream) Next() float64 {
	s.state += 0x6d2b79f5
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Intn returns an integer in [0, n) drawn from the stream.
func (s *Stream) Intn(n int) int {
	return int(s.Next() * float64(n))
}

// Range returns an integer in [lo, lo+n) drawn from the stream.
func (s *Stream) Range(lo, n int) int {
	return lo + s.Intn(n)
}

// NewMatchSeed produces a practically unique seed for a new match. It is the
// sole shared input both players use to generate identical problem
// sequences; it does not need to be cryptographically strong.
func NewMatchSeed() string {
	return fmt.Sprintf("%d-%08x", time.Now().UnixMilli(), rand.Uint32())
}
