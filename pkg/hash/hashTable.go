package hash

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nkysg/intro-to-database/pkg/entry"
)

// ErrTableFull is returned when an insertion cannot complete because no
// amount of splitting can separate the colliding keys. With 64-bit hashes
// this is a theoretical bound for any reasonable hash function; hitting it
// means the table is unusable for that key, not that memory ran out.
var ErrTableFull = errors.New("hash table full")

// A HashTable is a dynamic associative index that uses extendible hashing
// for quick lookups. The directory only ever doubles, buckets only ever
// split, and removals never shrink either, so depths and bucket ids are
// stable for the life of the table.
type HashTable[K comparable, V any] struct {
	globalDepth int64               // The **global** depth of the Hash Table
	directory   []*HashBucket[K, V] // 2^globalDepth slots; a slot's index, in binary, is the hash prefix it serves
	buckets     []*HashBucket[K, V] // Every bucket ever created, indexed by bucket id
	capacity    int64               // Entry capacity of each bucket
	hasher      HashFunc[K]         // Hash function applied to keys
	rwlock      sync.RWMutex        // Structural lock on the Hash Table
}

// NewHashTable returns a new HashTable whose buckets hold up to
// bucketCapacity entries each, hashing keys with the given hasher.
// The table starts at global depth 0 with a single empty bucket.
func NewHashTable[K comparable, V any](bucketCapacity int64, hasher HashFunc[K]) (*HashTable[K, V], error) {
	if bucketCapacity < 1 {
		return nil, fmt.Errorf("invalid bucket capacity %d", bucketCapacity)
	}
	if hasher == nil {
		return nil, errors.New("nil hasher")
	}
	bucket := newHashBucket[K, V](0, 0, bucketCapacity)
	return &HashTable[K, V]{
		directory: []*HashBucket[K, V]{bucket},
		buckets:   []*HashBucket[K, V]{bucket},
		capacity:  bucketCapacity,
		hasher:    hasher,
	}, nil
}

// HashKey returns the hash of the given key under the table's hash function.
func (table *HashTable[K, V]) HashKey(key K) uint64 {
	return table.hasher(key)
}

// GetGlobalDepth returns the table's global depth.
func (table *HashTable[K, V]) GetGlobalDepth() int64 {
	table.RLock()
	defer table.RUnlock()
	return table.globalDepth
}

// GetNumBuckets returns the number of distinct buckets the table has created.
// Aliased directory slots do not inflate the count.
func (table *HashTable[K, V]) GetNumBuckets() int64 {
	table.RLock()
	defer table.RUnlock()
	return int64(len(table.buckets))
}

// GetLocalDepth returns the local depth of the bucket with the given id,
// or -1 if no bucket with that id exists.
func (table *HashTable[K, V]) GetLocalDepth(bucketID int64) int64 {
	table.RLock()
	defer table.RUnlock()
	if bucketID < 0 || bucketID >= int64(len(table.buckets)) {
		return -1
	}
	return table.buckets[bucketID].localDepth
}

// Find returns the value associated with the given key, and whether the key
// is present at all. Absence is an answer, not an error.
func (table *HashTable[K, V]) Find(key K) (V, bool) {
	table.RLock()
	defer table.RUnlock()
	// [CONCURRENCY]: resolve and lock the bucket while holding the table lock
	bucket := table.bucketFor(table.hasher(key))
	bucket.Lock()
	defer bucket.Unlock()
	return bucket.Find(key)
}

// Remove deletes the entry with the given key, reporting whether an entry
// was removed. Buckets are never merged and the directory never shrinks,
// so global depth, local depths, and the bucket count are all unchanged
// no matter how many entries are removed.
func (table *HashTable[K, V]) Remove(key K) bool {
	table.RLock()
	defer table.RUnlock()
	// [CONCURRENCY]: resolve and lock the bucket while holding the table lock
	bucket := table.bucketFor(table.hasher(key))
	bucket.Lock()
	defer bucket.Unlock()
	return bucket.Remove(key)
}

// Insert upserts a key / value pair into the Hash Table, splitting buckets
// and doubling the directory as needed to make room. The only failure is
// ErrTableFull, when splitting can no longer separate the colliding keys.
func (table *HashTable[K, V]) Insert(key K, value V) error {
	hash := table.hasher(key)

	// [CONCURRENCY]: fast path under the shared lock; the bucket mutex
	// serializes writers that hash to the same bucket.
	table.RLock()
	bucket := table.bucketFor(hash)
	bucket.Lock()
	if bucket.Insert(key, value) {
		bucket.Unlock()
		table.RUnlock()
		return nil
	}
	// The bucket is full and the key is new. Trade the shared hold for the
	// exclusive one; another writer may split this bucket in the meantime.
	bucket.Unlock()
	table.RUnlock()

	// [CONCURRENCY]: the exclusive hold excludes every reader and writer,
	// so no bucket locks are needed below. Re-resolve before every attempt:
	// each split may have repointed the key's directory slot.
	table.WLock()
	defer table.WUnlock()
	for {
		bucket = table.bucketFor(hash)
		if bucket.Insert(key, value) {
			return nil
		}
		if err := table.split(bucket, hash); err != nil {
			return err
		}
	}
}

// Select returns all key-value entries in this table, in bucket id order.
func (table *HashTable[K, V]) Select() []entry.Entry[K, V] {
	table.RLock()
	defer table.RUnlock()
	ret := make([]entry.Entry[K, V], 0)
	for _, bucket := range table.buckets {
		bucket.Lock()
		ret = append(ret, bucket.Select()...)
		bucket.Unlock()
	}
	return ret
}

// Print writes a string representation of this entire table (including it's buckets) to the specified writer.
func (table *HashTable[K, V]) Print(w io.Writer) {
	table.RLock()
	defer table.RUnlock()
	io.WriteString(w, "====\n")
	io.WriteString(w, fmt.Sprintf("global depth: %d\n", table.globalDepth))
	for i, bucket := range table.directory {
		io.WriteString(w, fmt.Sprintf("====\nslot %d -> bucket %d\n", i, bucket.id))
		bucket.Lock()
		bucket.Print(w)
		bucket.Unlock()
	}
	io.WriteString(w, "====\n")
}

// PrintBucket writes a string representation of the bucket with the given id
// to the specified writer.
func (table *HashTable[K, V]) PrintBucket(bucketID int64, w io.Writer) {
	table.RLock()
	defer table.RUnlock()
	if bucketID < 0 || bucketID >= int64(len(table.buckets)) {
		fmt.Fprintf(w, "no bucket with id %d\n", bucketID)
		return
	}
	bucket := table.buckets[bucketID]
	bucket.Lock()
	bucket.Print(w)
	bucket.Unlock()
}

// [CONCURRENCY] Grab a write lock on the hash table index
func (table *HashTable[K, V]) WLock() {
	table.rwlock.Lock()
}

// [CONCURRENCY] Release a write lock on the hash table index
func (table *HashTable[K, V]) WUnlock() {
	table.rwlock.Unlock()
}

// [CONCURRENCY] Grab a read lock on the hash table index
func (table *HashTable[K, V]) RLock() {
	table.rwlock.RLock()
}

// [CONCURRENCY] Release a read lock on the hash table index
func (table *HashTable[K, V]) RUnlock() {
	table.rwlock.RUnlock()
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// HashTable Helper Functions ///////////////////////
/////////////////////////////////////////////////////////////////////////////

// bucketFor resolves the bucket serving the given hash, using its low
// globalDepth bits as the directory index. Caller must hold the table lock.
func (table *HashTable[K, V]) bucketFor(hash uint64) *HashBucket[K, V] {
	return table.directory[prefix(hash, table.globalDepth)]
}

// ExtendTable doubles the directory, increasing the global depth of the
// table by 1. Each new slot starts out aliasing the bucket of the old slot
// that shares its low bits. Caller must hold the table write lock.
func (table *HashTable[K, V]) ExtendTable() {
	table.globalDepth = table.globalDepth + 1
	table.directory = append(table.directory, table.directory...)
}

// split splits the given full bucket into itself and a new bucket one level
// deeper, doubling the directory first if the bucket was already at global
// depth. hash is the full hash that routed the caller to this bucket; its
// low bits identify the bucket's directory prefix. Caller must hold the
// table write lock.
//
// It is possible that after rehashing and redistributing, one of the buckets
// is empty and the other one still overflows, immediately requiring another
// split. This may be a consequence of a bad hash function, but is a possible
// scenario that we should handle: Insert re-resolves and splits again, so a
// single call here performs exactly one split.
func (table *HashTable[K, V]) split(bucket *HashBucket[K, V], hash uint64) error {
	// A bucket at full hash width holds keys whose hashes are identical;
	// the same is true early when the incoming key collides with every
	// resident entry. Either way another split cannot separate anything.
	if bucket.localDepth >= hashBits || table.futile(bucket, hash) {
		return ErrTableFull
	}
	// Figure out where the new pointer should live.
	oldHash := prefix(hash, bucket.localDepth)
	newHash := oldHash + 1<<bucket.localDepth
	// If we are splitting, check if we need to double the table first.
	if bucket.localDepth == table.globalDepth {
		table.ExtendTable()
	}
	// Next, make a new bucket one level deeper.
	bucket.localDepth++
	newBucket := newHashBucket[K, V](int64(len(table.buckets)), bucket.localDepth, table.capacity)
	table.buckets = append(table.buckets, newBucket)
	// Move entries over to it: those whose hash sets the newly consumed bit.
	tmpEntries := bucket.entries
	bucket.entries = make([]entry.Entry[K, V], 0, table.capacity)
	for _, e := range tmpEntries {
		if prefix(table.hasher(e.Key), bucket.localDepth) == newHash {
			newBucket.entries = append(newBucket.entries, e)
		} else {
			bucket.entries = append(bucket.entries, e)
		}
	}
	// Point the new bucket's share of the directory slots at it.
	power := bucket.localDepth
	for i := newHash; i < uint64(len(table.directory)); i += 1 << power {
		table.directory[i] = newBucket
	}
	return nil
}

// futile reports whether splitting the bucket is pointless because every
// resident entry hashes identically to the incoming key at full width.
func (table *HashTable[K, V]) futile(bucket *HashBucket[K, V], hash uint64) bool {
	for _, e := range bucket.entries {
		if table.hasher(e.Key) != hash {
			return false
		}
	}
	return true
}
