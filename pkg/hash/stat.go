package hash

// TableStat is a snapshot of a hash table's shape.
type TableStat struct {
	GlobalDepth        int64   // Global depth of the directory
	DirectorySize      int64   // Number of directory slots, always 2^GlobalDepth
	NumBuckets         int64   // Number of distinct buckets ever created
	NumEntries         int64   // Total number of entries across all buckets
	BucketCapacity     int64   // Entry capacity of each bucket
	BucketDistribution []int64 // Entries per bucket, indexed by bucket id; nil unless requested
}

// Stat returns statistics over the current state of the hash table.
// The per-bucket fill distribution is gathered only when includeDistribution
// is set, since assembling it touches every bucket.
func (table *HashTable[K, V]) Stat(includeDistribution bool) TableStat {
	table.RLock()
	defer table.RUnlock()
	stat := TableStat{
		GlobalDepth:    table.globalDepth,
		DirectorySize:  int64(len(table.directory)),
		NumBuckets:     int64(len(table.buckets)),
		BucketCapacity: table.capacity,
	}
	if includeDistribution {
		stat.BucketDistribution = make([]int64, len(table.buckets))
	}
	for i, bucket := range table.buckets {
		bucket.Lock()
		n := int64(len(bucket.entries))
		bucket.Unlock()
		stat.NumEntries += n
		if includeDistribution {
			stat.BucketDistribution[i] = n
		}
	}
	return stat
}
