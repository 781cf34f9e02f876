package hash

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nkysg/intro-to-database/pkg/entry"
	"github.com/nkysg/intro-to-database/pkg/repl"
)

// Creates a REPL for the given hash table.
func HashTableRepl(table *HashTable[int64, int64]) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("find", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleFind(table, payload)
	}, "Find an element. usage: find <key>")

	r.AddCommand("insert", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return "", HandleInsert(table, payload)
	}, "Insert an element, or update it if the key exists. usage: insert <key> <value>")

	r.AddCommand("delete", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return "", HandleDelete(table, payload)
	}, "Delete an element. usage: delete <key>")

	r.AddCommand("select", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleSelect(table, payload)
	}, "Select all elements. usage: select")

	r.AddCommand("pretty", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandlePretty(table, payload)
	}, "Print out the internal data representation. usage: pretty [bucket]")

	r.AddCommand("stat", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleStat(table, payload)
	}, "Print table statistics. usage: stat")

	r.AddCommand("verify", func(payload string, replConfig *repl.REPLConfig) (string, error) {
		return HandleVerify(table, payload)
	}, "Check the table's structural invariants. usage: verify")

	return r
}

// Handle find.
func HandleFind(table *HashTable[int64, int64], payload string) (output string, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: find <key>
	var key int
	if numFields != 2 {
		return "", fmt.Errorf("usage: find <key>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return "", fmt.Errorf("find error: %v", err)
	}
	value, found := table.Find(int64(key))
	if !found {
		return "", fmt.Errorf("find error: key %d not found", key)
	}

	return fmt.Sprintf("found entry: (%d, %d)\n", key, value), nil
}

// Handle insert.
func HandleInsert(table *HashTable[int64, int64], payload string) (err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: insert <key> <value>
	var key, value int
	if numFields != 3 {
		return fmt.Errorf("usage: insert <key> <value>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	if value, err = strconv.Atoi(fields[2]); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	err = table.Insert(int64(key), int64(value))
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	return nil
}

// Handle delete.
func HandleDelete(table *HashTable[int64, int64], payload string) (err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: delete <key>
	var key int
	if numFields != 2 {
		return fmt.Errorf("usage: delete <key>")
	}
	if key, err = strconv.Atoi(fields[1]); err != nil {
		return fmt.Errorf("delete error: %v", err)
	}
	if !table.Remove(int64(key)) {
		return fmt.Errorf("delete error: key %d not found", key)
	}
	return nil
}

// Handle select.
func HandleSelect(table *HashTable[int64, int64], payload string) (output string, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	w := new(strings.Builder)
	// Usage: select
	if numFields != 1 {
		return "", fmt.Errorf("usage: select")
	}
	printResults(table.Select(), w)
	return w.String(), nil
}

// Handle pretty printing.
func HandlePretty(table *HashTable[int64, int64], payload string) (output string, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	w := new(strings.Builder)
	// Usage: pretty [bucket]
	if numFields == 1 {
		table.Print(w)
	} else if numFields == 2 {
		var bucketID int
		if bucketID, err = strconv.Atoi(fields[1]); err != nil {
			return "", fmt.Errorf("pretty error: %v", err)
		}
		table.PrintBucket(int64(bucketID), w)
	} else {
		return "", fmt.Errorf("usage: pretty [bucket]")
	}
	return w.String(), nil
}

// Handle stat.
func HandleStat(table *HashTable[int64, int64], payload string) (output string, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: stat
	if numFields != 1 {
		return "", fmt.Errorf("usage: stat")
	}
	stat := table.Stat(true)
	w := new(strings.Builder)
	fmt.Fprintf(w, "global depth: %d\n", stat.GlobalDepth)
	fmt.Fprintf(w, "directory slots: %d\n", stat.DirectorySize)
	fmt.Fprintf(w, "buckets: %d (capacity %d each)\n", stat.NumBuckets, stat.BucketCapacity)
	fmt.Fprintf(w, "entries: %d\n", stat.NumEntries)
	io.WriteString(w, "fill: ")
	for id, n := range stat.BucketDistribution {
		fmt.Fprintf(w, "(bucket %d: %d), ", id, n)
	}
	io.WriteString(w, "\n")
	return w.String(), nil
}

// Handle verify.
func HandleVerify(table *HashTable[int64, int64], payload string) (output string, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: verify
	if numFields != 1 {
		return "", fmt.Errorf("usage: verify")
	}
	ok, err := IsHashTable(table)
	if !ok {
		return "", fmt.Errorf("verify error: %v", err)
	}
	return "table structure OK\n", nil
}

// printResults prints all given entries in a standard format.
func printResults(entries []entry.Entry[int64, int64], w io.Writer) {
	for _, entry := range entries {
		io.WriteString(w, fmt.Sprintf("(%v, %v)\n",
			entry.Key, entry.Value))
	}
}
