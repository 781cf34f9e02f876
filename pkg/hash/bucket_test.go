package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBucket(t *testing.T) {
	t.Run("starts empty at its assigned depth", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](3, 2, 8)
		assert.Equal(t, int64(3), bucket.GetID())
		assert.Equal(t, int64(2), bucket.GetDepth())
		assert.False(t, bucket.IsFull())
		assert.Empty(t, bucket.Select())
	})

	t.Run("finds inserted entries", func(t *testing.T) {
		bucket := newHashBucket[int64, string](0, 0, 4)
		require.True(t, bucket.Insert(1, "one"))
		require.True(t, bucket.Insert(2, "two"))

		value, found := bucket.Find(1)
		assert.True(t, found)
		assert.Equal(t, "one", value)

		value, found = bucket.Find(3)
		assert.False(t, found)
		assert.Equal(t, "", value, "missing key yields the zero value")
	})

	t.Run("updates an existing key in place", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](0, 0, 4)
		require.True(t, bucket.Insert(1, 10))
		require.True(t, bucket.Insert(1, 20))

		value, found := bucket.Find(1)
		assert.True(t, found)
		assert.Equal(t, int64(20), value)
		assert.Len(t, bucket.Select(), 1, "update does not duplicate the entry")
	})

	t.Run("rejects a new key only when full", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](0, 0, 2)
		require.True(t, bucket.Insert(1, 10))
		require.True(t, bucket.Insert(2, 20))
		require.True(t, bucket.IsFull())

		assert.False(t, bucket.Insert(3, 30), "full bucket refuses a new key")
		_, found := bucket.Find(3)
		assert.False(t, found, "refused key was not inserted")

		assert.True(t, bucket.Insert(2, 200), "full bucket still updates existing keys")
		value, _ := bucket.Find(2)
		assert.Equal(t, int64(200), value)
	})

	t.Run("removes entries and reports absence", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](0, 0, 4)
		require.True(t, bucket.Insert(1, 10))

		assert.True(t, bucket.Remove(1))
		_, found := bucket.Find(1)
		assert.False(t, found)
		assert.False(t, bucket.Remove(1), "second remove reports nothing removed")
		assert.False(t, bucket.IsFull(), "removal frees the slot")
	})

	t.Run("select copies the entries", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](0, 0, 4)
		require.True(t, bucket.Insert(1, 10))

		entries := bucket.Select()
		require.Len(t, entries, 1)
		entries[0].Value = 999

		value, _ := bucket.Find(1)
		assert.Equal(t, int64(10), value, "mutating the selection leaves the bucket untouched")
	})

	t.Run("prints its depth and entries", func(t *testing.T) {
		bucket := newHashBucket[int64, int64](0, 3, 4)
		require.True(t, bucket.Insert(1, 10))

		w := new(strings.Builder)
		bucket.Print(w)
		assert.Contains(t, w.String(), "bucket depth: 3")
		assert.Contains(t, w.String(), "(1, 10)")
	})
}
