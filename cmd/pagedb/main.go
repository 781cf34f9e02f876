package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkysg/intro-to-database/pkg/config"
	"github.com/nkysg/intro-to-database/pkg/hash"
	"github.com/nkysg/intro-to-database/pkg/list"
	"github.com/nkysg/intro-to-database/pkg/pager"
	"github.com/nkysg/intro-to-database/pkg/repl"

	"github.com/google/uuid"
)

// Default port 8335 (BEES).
const DEFAULT_PORT int = 8335

// Listens for SIGINT or SIGTERM and closes the pager behind the REPLs.
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

// Start listening for connections at port `port`, running the repl over
// each connection with its own client id.
func startServer(repl *repl.REPL, prompt string, port int) {
	handleConn := func(c net.Conn) {
		clientId := uuid.New()
		defer c.Close()
		repl.Run(clientId, prompt, c, c)
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v server started listening on localhost:%v\n", config.DBName,
		listener.Addr().(*net.TCPAddr).Port)
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Print(err)
			continue
		}
		go handleConn(conn)
	}
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

// Start the database.
func main() {
	// Set up flags.
	var promptFlag = flag.Bool("c", true, "use prompt?")
	var targetFlag = flag.String("target", "", "choose target: [list,table,pager,all] (required)")
	var dbFlag = flag.String("db", "data/pagedb.db", "DB file")
	var hasherFlag = flag.String("hasher", "xxhash", "hash function for the standalone table: [xxhash,murmur]")
	var serverFlag = flag.Bool("server", false, "serve the REPL over TCP instead of stdin")
	var portFlag = flag.Int("p", DEFAULT_PORT, "port number")
	flag.Parse()

	needList := *targetFlag == "list" || *targetFlag == "all"
	needTable := *targetFlag == "table" || *targetFlag == "all"
	needPager := *targetFlag == "pager" || *targetFlag == "all"
	if !needList && !needTable && !needPager {
		fmt.Println("must specify -target [list,table,pager,all]")
		return
	}

	// Set up REPL resources.
	prompt := config.GetPrompt(*promptFlag)
	repls := make([]*repl.REPL, 0)

	if needList {
		l := list.NewList[string]()
		repls = append(repls, list.ListRepl(l))
	}

	if needTable {
		hasher, err := pickHasher(*hasherFlag)
		if err != nil {
			fmt.Println(err)
			return
		}
		table, err := hash.NewHashTable[int64, int64](config.DefaultBucketCapacity, hasher)
		if err != nil {
			fmt.Println(err)
			return
		}
		repls = append(repls, hash.HashTableRepl(table))
	}

	if needPager {
		p, err := pager.New(*dbFlag)
		if err != nil {
			fmt.Println(err)
			return
		}
		// Setup close conditions.
		defer p.Close()
		setupCloseHandler(p)
		repls = append(repls, pager.PagerRepl(p))
	}

	// Combine the REPLs.
	r, err := repl.CombineRepls(repls)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Serve over TCP if requested, else run the REPL here.
	if *serverFlag {
		startServer(r, prompt, *portFlag)
	} else {
		r.Run(uuid.New(), prompt, nil, nil)
	}
}
