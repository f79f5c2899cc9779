package nebula

import "math/rand/v2"

// Source is the random number source used for velocities, hues and beam
// rotations. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randRange returns a number uniformly distributed in [min, max).
func randRange(rng Source, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
