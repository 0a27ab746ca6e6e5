// Package rng provides the deterministic random source used by every
// resampling stage.
package rng

import (
	"context"
	"math/rand"

	"qics/domain/core"
	"qics/ports"
)

// Deterministic implements ports.RNGPort with stable stream derivation:
// the same (name, seed) pair always yields an identical sequence.
type Deterministic struct{}

// NewDeterministic creates the adapter.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// SeededStream returns a generator for a named operation. The name is
// folded into the seed so distinct stages sharing a base seed still
// draw independent sequences.
func (d *Deterministic) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(core.DeriveSeed(seed, name, 0))), nil
}

// DeriveSeed returns the child seed for one iteration of a named stage.
func (d *Deterministic) DeriveSeed(name string, index int, base int64) int64 {
	return core.DeriveSeed(base, name, index)
}

var _ ports.RNGPort = (*Deterministic)(nil)
