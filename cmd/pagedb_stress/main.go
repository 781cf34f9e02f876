package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nkysg/intro-to-database/pkg/config"
	"github.com/nkysg/intro-to-database/pkg/hash"
	"github.com/nkysg/intro-to-database/pkg/pager"
	"github.com/nkysg/intro-to-database/pkg/repl"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var STARTUP = 100 * time.Millisecond
var MAX_DELAY int64 = 10

// Listens for SIGINT or SIGTERM and closes the pager.
func setupCloseHandler(p *pager.Pager) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("closehandler invoked")
		p.Close()
		os.Exit(0)
	}()
}

// Get delay jitter.
func jitter() time.Duration {
	return time.Duration(rand.Int63n(MAX_DELAY)+1) * time.Millisecond
}

// Parse workload
func parseWorkload(path string) ([]string, error) {
	// Open the file.
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	// Scan through all lines.
	var workload []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		workload = append(workload, scanner.Text())
	}
	return workload, scanner.Err()
}

// pickHasher maps a -hasher flag value to a hash function.
func pickHasher(name string) (hash.HashFunc[int64], error) {
	switch name {
	case "xxhash":
		return hash.XxHasher, nil
	case "murmur":
		return hash.MurmurHasher, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q, want xxhash or murmur", name)
	}
}

// handleWorkload feeds every n-th workload line to the REPL channel,
// erroring out on lines whose trigger no command would accept.
func handleWorkload(r *repl.REPL, c chan string, workload []string, idx int, n int) error {
	commands := r.GetCommands()
	for i := idx; i < len(workload); i += n {
		fields := strings.Fields(workload[i])
		if len(fields) == 0 {
			continue
		}
		if _, ok := commands[fields[0]]; !ok {
			return fmt.Errorf("workload line %d: unknown command %q", i+1, fields[0])
		}
		time.Sleep(jitter())
		c <- workload[i]
	}
	return nil
}

// Stress the hash table or the pager through its REPL.
func main() {
	// Set up flags.
	var targetFlag = flag.String("target", "", "choose target: [table,pager] (required)")
	var hasherFlag = flag.String("hasher", "xxhash", "hash function for the table: [xxhash,murmur]")
	var workloadFlag = flag.String("workload", "", "workload file (required)")
	var nFlag = flag.Int("n", 1, "number of threads to run (default: 1)")
	var verifyFlag = flag.Bool("verify", false, "enable to verify index structure at the end of the workload")
	flag.Parse()

	// Build the target and its REPL.
	var table *hash.HashTable[int64, int64]
	var p *pager.Pager
	var r *repl.REPL
	switch *targetFlag {
	case "table":
		hasher, err := pickHasher(*hasherFlag)
		if err != nil {
			fmt.Println(err)
			return
		}
		table, err = hash.NewHashTable[int64, int64](config.DefaultBucketCapacity, hasher)
		if err != nil {
			fmt.Println(err)
			return
		}
		r = hash.HashTableRepl(table)
	case "pager":
		// Clean up old db resources.
		os.Remove("./data/stress.db")
		var err error
		p, err = pager.New("data/stress.db")
		if err != nil {
			fmt.Println(err)
			return
		}
		defer p.Close()
		setupCloseHandler(p)
		r = pager.PagerRepl(p)
	default:
		fmt.Println("must specify -target [table,pager]")
		return
	}

	// Parse the workload.
	if *workloadFlag == "" {
		fmt.Println("no workload file given")
		return
	}
	workload, err := parseWorkload(*workloadFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Run REPL.
	c := make(chan string)
	go r.RunChan(c, uuid.New(), "")
	// Some time to wake up...
	time.Sleep(STARTUP)

	// Fan the workload out over n feeders.
	var g errgroup.Group
	for i := 0; i < *nFlag; i++ {
		idx := i
		g.Go(func() error {
			return handleWorkload(r, c, workload, idx, *nFlag)
		})
	}
	err = g.Wait()
	close(c)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Verify the structure of the index.
	if *verifyFlag {
		target := table
		if target == nil {
			target = p.GetPageTable()
		}
		if ok, err := hash.IsHashTable(target); !ok {
			fmt.Println("verify failed:", err)
			os.Exit(1)
		}
		fmt.Println("verify OK")
	}
}
