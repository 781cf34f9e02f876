package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// HashFunc computes the full 64-bit hash of a key. The table consumes hashes
// low bits first, so any deterministic, process-stable function qualifies.
type HashFunc[K any] func(key K) uint64

// hashBits is the width of a hash in bits. A bucket at this local depth has
// consumed every bit of its keys' hashes and can never be split further.
const hashBits int64 = 64

// getHash uses the given hasher function to calculate and return
// the 64-bit hash of an int64 key.
func getHash(hasher func(b []byte) uint64, key int64) uint64 {
	buf := make([]byte, binary.MaxVarintLen64)
	binary.PutVarint(buf, key)
	return hasher(buf)
}

// XxHasher returns the xxHash hash of the given key.
func XxHasher(key int64) uint64 {
	return getHash(xxhash.Sum64, key)
}

// MurmurHasher returns the MurmurHash3 hash of the given key.
func MurmurHasher(key int64) uint64 {
	return getHash(murmur3.Sum64, key)
}

// prefix truncates a hash down to its low depth bits.
func prefix(hash uint64, depth int64) uint64 {
	return hash & (1<<depth - 1)
}
