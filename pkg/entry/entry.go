package entry

import (
	"fmt"
	"io"
)

// Entry is a key-value pair stored in an index bucket.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// New constructs and returns a new Entry with the specified key and value.
func New[K comparable, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{Key: key, Value: value}
}

// Print writes the entry to the specified writer in the following format: (<key>, <value>)
func (entry Entry[K, V]) Print(w io.Writer) {
	fmt.Fprintf(w, "(%v, %v), ", entry.Key, entry.Value)
}
