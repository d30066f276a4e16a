package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"main/internal/eventlog"
)

func main() {
	path := flag.String("path", "testdata/journal/events.ndjson", "Journal file")
	after := flag.Uint64("after", 0, "Only records with seq greater than this")
	typeFilter := flag.String("type", "", "Exact event type filter")
	limit := flag.Int("limit", 0, "Stop after this many records per pass (0=all)")
	follow := flag.Bool("follow", false, "Keep polling for new records after the initial dump")
	interval := flag.Duration("poll-interval", time.Second, "Poll interval with -follow")
	flag.Parse()

	journal, err := eventlog.Open(eventlog.Config{Path: *path, NoSync: true})
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	cursor := *after
	dump := func() error {
		recs, err := journal.Read(eventlog.ReadOptions{
			AfterSeq: cursor,
			Type:     *typeFilter,
			Limit:    *limit,
		})
		if err != nil {
			return err
		}
		for _, rec := range recs {
			printRecord(rec)
			cursor = rec.Seq
		}
		return nil
	}

	if err := dump(); err != nil {
		log.Fatalf("read journal: %v", err)
	}
	if !*follow {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := dump(); err != nil {
			fmt.Fprintf(os.Stderr, "logdump: %v\n", err)
		}
	}
}

func printRecord(rec eventlog.Record) {
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	fmt.Println(string(line))
}
