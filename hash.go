package rhmap

import (
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// HashFunc maps key bytes to a 32-bit hash. It must be deterministic for the
// lifetime of a table, since resizing recomputes every hash from its key.
type HashFunc func(key []byte) uint32

// DefaultHashFunc hashes with xxHash64 (fixed zero seed) folded into 32 bits.
func DefaultHashFunc(key []byte) uint32 {
	return fold32(xxhash.Sum64(key))
}

// XXH3HashFunc hashes with XXH3-64 folded into 32 bits.
func XXH3HashFunc(key []byte) uint32 {
	return fold32(xxh3.Hash(key))
}

// fold32 keeps entropy from both halves, so masking the low bits still
// depends on the high ones.
func fold32(h uint64) uint32 {
	return uint32(h - (h >> 32))
}
