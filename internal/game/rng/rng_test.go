package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamDeterministic(t *testing.T) {
	a := New("abc")
	b := New("abc")

	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.Next(), b.Next(), "streams diverged at draw %d", i)
	}
}

func TestStreamSeedSensitivity(t *testing.T) {
	a := New("abc")
	b := New("abd")

	same := 0
	for i := 0; i < 100; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	assert.Less(t, same, 5, "distinct seeds should produce distinct streams")
}

func TestStreamRange(t *testing.T) {
	s := New("range-check")
	for i := 0; i < 10000; i++ {
		v := s.Next()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestIntnBounds(t *testing.T) {
	s := New("intn")
	for i := 0; i < 1000; i++ {
		v := s.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestNewMatchSeedUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seed := NewMatchSeed()
		assert.False(t, seen[seed], "seed reused: %s", seed)
		seen[seed] = true
	}
}
