// Package shuffle produces reproducible orderings from opaque seed strings.
package shuffle

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HashSeed folds every rune of seed into an unsigned 32-bit hash (h*31 + r).
func HashSeed(seed string) uint32 {
	var h uint32
	for _, r := range seed {
		h = h*31 + uint32(r)
	}
	return h
}

// Rand is a mulberry32 generator. The zero value is a valid generator seeded with 0.
type Rand struct {
	state uint32
}

func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

func (r *Rand) Uint32() uint32 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Shuffle returns a permuted copy of items. The same seed and input order
// always produce the same output. items is never modified.
func Shuffle[T any](items []T, seed string) []T {
	out := slices.Clone(items)
	rng := NewRand(HashSeed(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewSeed returns a fresh, non-reproducible seed for papers generated
// without one.
func NewSeed() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	entropy := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return ts + "-" + entropy
}
