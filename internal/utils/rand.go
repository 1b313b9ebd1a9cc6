package utils

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a seeded generator. A zero seed draws from the clock so
// production runs vary day to day while tests stay reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffled returns a shuffled copy of values.
func Shuffled[T any](r *rand.Rand, values []T) []T {
	out := make([]T, len(values))
	copy(out, values)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
