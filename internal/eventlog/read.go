package eventlog

import (
	"bufio"
	"fmt"
	"os"
)

// maxLineBytes bounds a single journal line during forward scans.
const maxLineBytes = 1 << 20

// ReadOptions select a slice of the journal.
type ReadOptions struct {
	// AfterSeq excludes records at or below this sequence.
	AfterSeq uint64
	// Type, when non-empty, keeps only exact type matches.
	Type string
	// Limit, when positive, stops the scan after this many matches.
	Limit int
}

// Read scans the persisted journal forward and returns matching records in
// ascending sequence order. A missing file is an empty journal. Lines that
// fail to decode are skipped wherever they appear, mirroring the recovery
// tolerance but applied to the whole file. The scan stops as soon as Limit
// matches are collected.
//
// Read never mutates log state and may run concurrently with appends and
// with other reads; it only observes fully written lines.
func (l *Log) Read(opts ReadOptions) ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		rec, ok := decodeRecord(sc.Bytes())
		if !ok {
			l.metrics.IncDecodeSkip()
			continue
		}
		if rec.Seq <= opts.AfterSeq {
			continue
		}
		if opts.Type != "" && rec.Type != opts.Type {
			continue
		}
		out = append(out, rec)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return out, nil
}
