package hash

import (
	"fmt"
	"io"
	"sync"

	"github.com/nkysg/intro-to-database/pkg/entry"
)

// HashBucket represents a bucket within a hash table. A bucket holds up to
// capacity entries with distinct keys, all of whose hashes agree on their
// low localDepth bits. A bucket keeps the id it was created with for its
// whole life; splitting creates new buckets but never invalidates old ones.
type HashBucket[K comparable, V any] struct {
	id         int64 // Stable identity assigned by the owning table
	localDepth int64 // The **local** depth of the Hash Bucket
	capacity   int64 // Maximum number of entries this bucket can hold
	entries    []entry.Entry[K, V]
	mtx        sync.Mutex // Lock on the Hash Bucket
}

// newHashBucket constructs a new, empty HashBucket with the specified id,
// local depth, and entry capacity.
func newHashBucket[K comparable, V any](id int64, depth int64, capacity int64) *HashBucket[K, V] {
	return &HashBucket[K, V]{
		id:         id,
		localDepth: depth,
		capacity:   capacity,
		entries:    make([]entry.Entry[K, V], 0, capacity),
	}
}

// GetID returns the bucket's stable id.
func (bucket *HashBucket[K, V]) GetID() int64 {
	return bucket.id
}

// GetDepth returns the bucket's local depth.
func (bucket *HashBucket[K, V]) GetDepth() int64 {
	return bucket.localDepth
}

// IsFull returns whether the bucket is at capacity.
func (bucket *HashBucket[K, V]) IsFull() bool {
	return int64(len(bucket.entries)) >= bucket.capacity
}

// Find returns the value associated with the given key in this bucket,
// and whether such an entry exists.
func (bucket *HashBucket[K, V]) Find(key K) (V, bool) {
	for _, e := range bucket.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Insert upserts the given key-value pair. An existing entry with the same
// key has its value overwritten in place. Returns false if the bucket is full
// and the key is not already present; nothing is inserted then, and the
// caller must split the bucket before retrying.
func (bucket *HashBucket[K, V]) Insert(key K, value V) bool {
	for i := range bucket.entries {
		if bucket.entries[i].Key == key {
			bucket.entries[i].Value = value
			return true
		}
	}
	if bucket.IsFull() {
		return false
	}
	bucket.entries = append(bucket.entries, entry.New(key, value))
	return true
}

// Remove deletes the entry with the specified key, reporting whether an
// entry was removed.
// NOTE: does not coalesce (ie doesn't merge buckets when they become empty)
func (bucket *HashBucket[K, V]) Remove(key K) bool {
	for i := range bucket.entries {
		if bucket.entries[i].Key == key {
			bucket.entries = append(bucket.entries[:i], bucket.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Select returns a copy of all key-value entries within this bucket.
func (bucket *HashBucket[K, V]) Select() []entry.Entry[K, V] {
	ret := make([]entry.Entry[K, V], len(bucket.entries))
	copy(ret, bucket.entries)
	return ret
}

// Print writes a string-representation of this bucket and it's entries to the specified writer.
func (bucket *HashBucket[K, V]) Print(w io.Writer) {
	io.WriteString(w, fmt.Sprintf("bucket depth: %d\n", bucket.localDepth))
	io.WriteString(w, "entries:")
	for _, e := range bucket.entries {
		e.Print(w)
	}
	io.WriteString(w, "\n")
}

// [CONCURRENCY] Grab the bucket's lock. Bucket locks are only ever acquired
// while holding the table's lock, table first, one bucket at a time.
func (bucket *HashBucket[K, V]) Lock() {
	bucket.mtx.Lock()
}

// [CONCURRENCY] Release the bucket's lock.
func (bucket *HashBucket[K, V]) Unlock() {
	bucket.mtx.Unlock()
}
