package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Every randomized stage draws from a named stream so runs
// replay bit-for-bit under the same base seed.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator
	// for a named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// DeriveSeed produces the child seed for iteration index of a
	// named stage. Parallel workers use per-iteration derived seeds
	// so results do not depend on how work is distributed.
	DeriveSeed(name string, index int, base int64) int64
}
