package hash

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// IsHashTable checks the structural invariants of an extendible hash table:
// the directory holds exactly 2^globalDepth slots, every bucket at local
// depth ld is referenced by exactly 2^(globalDepth-ld) slots that agree on
// the bucket's hash prefix, no bucket is orphaned, and every entry lives in
// the bucket its hash routes to. Returns false and a description of the
// first violation found.
func IsHashTable[K comparable, V any](table *HashTable[K, V]) (bool, error) {
	table.RLock()
	defer table.RUnlock()

	if int64(len(table.directory)) != 1<<uint64(table.globalDepth) {
		return false, fmt.Errorf("directory has %d slots, want 2^%d",
			len(table.directory), table.globalDepth)
	}

	// Walk the directory, counting how many slots reference each bucket and
	// checking that aliased slots agree on the bucket's prefix.
	numBuckets := len(table.buckets)
	refs := make([]int64, numBuckets)
	seen := bitset.New(uint(numBuckets))
	firstSlot := make([]uint64, numBuckets)
	for i, bucket := range table.directory {
		slot := uint64(i)
		id := bucket.id
		if id < 0 || id >= int64(numBuckets) || table.buckets[id] != bucket {
			return false, fmt.Errorf("slot %d references a bucket unknown to the table", i)
		}
		if !seen.Test(uint(id)) {
			seen.Set(uint(id))
			firstSlot[id] = slot
		} else if prefix(slot, bucket.localDepth) != prefix(firstSlot[id], bucket.localDepth) {
			return false, fmt.Errorf("slots %d and %d alias bucket %d but disagree on its %d-bit prefix",
				firstSlot[id], slot, id, bucket.localDepth)
		}
		refs[id]++
	}
	if !seen.All() {
		orphan, _ := seen.NextClear(0)
		return false, fmt.Errorf("bucket %d is not referenced by any directory slot", orphan)
	}

	// Check each bucket and its entries.
	for id, bucket := range table.buckets {
		if bucket.localDepth < 0 || bucket.localDepth > table.globalDepth {
			return false, fmt.Errorf("bucket %d has local depth %d with global depth %d",
				id, bucket.localDepth, table.globalDepth)
		}
		if want := int64(1) << uint64(table.globalDepth-bucket.localDepth); refs[id] != want {
			return false, fmt.Errorf("bucket %d has %d directory references, want %d",
				id, refs[id], want)
		}
		bucket.Lock()
		entries := bucket.Select()
		depth := bucket.localDepth
		capacity := bucket.capacity
		bucket.Unlock()
		if int64(len(entries)) > capacity {
			return false, fmt.Errorf("bucket %d holds %d entries, capacity %d",
				id, len(entries), capacity)
		}
		keys := make(map[K]struct{}, len(entries))
		for _, e := range entries {
			if _, dup := keys[e.Key]; dup {
				return false, fmt.Errorf("bucket %d holds duplicate key %v", id, e.Key)
			}
			keys[e.Key] = struct{}{}
			hash := table.hasher(e.Key)
			if prefix(hash, depth) != prefix(firstSlot[id], depth) {
				return false, fmt.Errorf("key %v in bucket %d does not match the bucket's %d-bit prefix",
					e.Key, id, depth)
			}
			if table.directory[prefix(hash, table.globalDepth)] != table.buckets[id] {
				return false, fmt.Errorf("key %v routes to a different bucket than %d", e.Key, id)
			}
		}
	}
	return true, nil
}
