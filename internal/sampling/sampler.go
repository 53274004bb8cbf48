package sampling

import (
	"math/rand"
	"time"
)

// SamplerConfig configures the behaviour of a Sampler.
type SamplerConfig struct {
	// Seed for the uniform source. -1 seeds from the wall clock.
	Seed int64
}

// Sampler draws indices from discrete distributions given as integer
// weights. A Sampler is not safe for concurrent use.
type Sampler struct {
	rng  *rand.Rand
	seed int64
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	seed := cfg.Seed
	if seed == -1 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the sampler was created with, after resolving -1.
func (s *Sampler) Seed() int64 {
	return s.seed
}

// Sample draws a single index from weights with probability proportional
// to its weight. The uniform source is consulted exactly once, unless there
// is nothing to choose from: for an empty slice or one without any positive
// weight Sample returns -1. Non-positive weights are never selected.
func (s *Sampler) Sample(weights []int) int {
	var total int64
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += int64(w)
			last = i
		}
	}
	if total == 0 {
		return -1
	}

	r := s.rng.Int63n(total)
	var c int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		c += int64(w)
		if r < c {
			return i
		}
	}
	return last
}
