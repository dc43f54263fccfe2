package synth

import "math/rand/v2"

// Random is the only source of randomness used by the generators.
// Float64 returns a value in [0, 1) and IntN a value in [0, n).
type Random interface {
	Float64() float64
	IntN(n int) int
}

// NewRandom returns a reproducible PCG-backed source for seed
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Midpoint always returns the middle of the requested range.
// Uniform draws become (a+b)/2 and IntN(n) becomes n/2, which makes a generated series fully predictable.
type Midpoint struct{}

// Float64 returns 0.5
func (Midpoint) Float64() float64 { return 0.5 }

// IntN returns n/2
func (Midpoint) IntN(n int) int { return n / 2 }
