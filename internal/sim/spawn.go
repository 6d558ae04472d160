package sim

import "math/rand"

// Chance draws a Bernoulli trial with probability p.
func Chance(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// Jitter returns a zero-mean uniform value in [-amp, amp).
func Jitter(rng *rand.Rand, amp float64) float64 {
	return (rng.Float64() - 0.5) * 2 * amp
}

func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
