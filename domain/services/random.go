package services

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"time"
)

// SeededRandom is a RandomSource that remembers its seed so a draw can be replayed
type SeededRandom struct {
	seed int64
	rng  *mathrand.Rand
}

// NewSeededRandom creates a source from a fixed seed
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{
		seed: seed,
		rng:  mathrand.New(mathrand.NewSource(seed)),
	}
}

// NewRandomSource creates a source seeded from crypto/rand
func NewRandomSource() *SeededRandom {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return NewSeededRandom(time.Now().UnixNano())
	}
	return NewSeededRandom(int64(binary.LittleEndian.Uint64(b[:]) >> 1))
}

// Intn returns a value in [0, n)
func (r *SeededRandom) Intn(n int) int {
	return r.rng.Intn(n)
}

// Seed returns the seed the source was built from
func (r *SeededRandom) Seed() int64 {
	return r.seed
}
