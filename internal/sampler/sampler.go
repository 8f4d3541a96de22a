// Package sampler picks uniform random subsets of a document pool.
package sampler

import (
	"math/rand"
	"time"
)

// Sampler selects numSelect of poolSize items. The returned mask has length
// poolSize with exactly min(numSelect, poolSize) entries set.
type Sampler interface {
	Select(poolSize, numSelect int) []bool
}

// Uniform draws subsets uniformly without replacement. It is not safe for
// concurrent use.
type Uniform struct {
	rng *rand.Rand
}

// NewUniform returns a Uniform sampler. The same non-zero seed always yields
// the same sequence of selections; seed 0 seeds from the clock.
func NewUniform(seed int64) *Uniform {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Uniform{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// Select implements Sampler using Floyd's algorithm, which touches only
// numSelect random draws regardless of poolSize.
func (u *Uniform) Select(poolSize, numSelect int) []bool {
	if poolSize <= 0 {
		return nil
	}
	mask := make([]bool, poolSize)
	if numSelect >= poolSize {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	for j := poolSize - numSelect; j < poolSize; j++ {
		t := u.rng.Intn(j + 1)
		if mask[t] {
			mask[j] = true
		} else {
			mask[t] = true
		}
	}
	return mask
}

// Count returns the number of selected entries in mask.
func Count(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}
