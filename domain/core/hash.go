package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	DatasetHash Hash
	ConfigHash  Hash
)

// Constructors
func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }
func NewConfigHash(data []byte) ConfigHash   { return ConfigHash(NewHash(data)) }

// String conversions
func (h DatasetHash) String() string { return Hash(h).String() }
func (h ConfigHash) String() string  { return Hash(h).String() }

// ComputeDatasetHash fingerprints a set of galaxy names with their sample
// counts. Order-independent: the same galaxies always produce the same hash.
func ComputeDatasetHash(sampleCounts map[string]int) DatasetHash {
	names := make([]string, 0, len(sampleCounts))
	for name := range sampleCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		data.WriteString(name)
		data.WriteString(fmt.Sprintf(":%d;", sampleCounts[name]))
	}

	return NewDatasetHash([]byte(data.String()))
}

// ComputeConfigHash fingerprints analysis parameters so stored results can
// be traced back to the exact configuration that produced them.
func ComputeConfigHash(params map[string]string) ConfigHash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(params[key])
		data.WriteString(";")
	}

	return NewConfigHash([]byte(data.String()))
}

// DeriveSeed produces a deterministic child seed from a base seed and a
// label. Workers resampling in parallel each derive their own stream seed
// this way, so results do not depend on how iterations are distributed
// across goroutines.
func DeriveSeed(base int64, label string, index int) int64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(base))
	binary.BigEndian.PutUint64(buf[8:], uint64(index))

	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte(label))
	sum := h.Sum(nil)

	// Clear the sign bit so the seed is always non-negative.
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}
