package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"main/internal/obs"

	"github.com/yanun0323/logs"
)

var (
	ErrClosed    = errors.New("eventlog: closed")
	ErrEmptyPath = errors.New("eventlog: path is empty")
)

// Config controls where and how the journal persists.
type Config struct {
	// Path is the journal file. The parent directory is created on open.
	Path string
	// NoSync skips the per-append fsync. Tests and benchmarks only.
	NoSync bool
	// Metrics receives journal counters when set.
	Metrics *obs.Metrics
}

// Log is an append-only, crash-recoverable event journal.
//
// One Log owns one file. Opening two Logs over the same path is undefined
// behavior: sequence assignment is coordinated only in memory.
type Log struct {
	path    string
	noSync  bool
	metrics *obs.Metrics

	// mu serializes appends so sequence order matches on-disk order, and
	// guards file, lastSeq, closed and archiver.
	mu       sync.Mutex
	file     *os.File
	lastSeq  uint64
	closed   bool
	archiver Archiver

	subMu  sync.Mutex
	global []*subscription
	typed  map[string][]*subscription
}

// Open creates or reopens the journal at cfg.Path and restores the last
// assigned sequence from it. A missing file is an empty journal, not an
// error; any other read failure is fatal.
func Open(cfg Config) (*Log, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Log{
		path:    cfg.Path,
		noSync:  cfg.NoSync,
		metrics: cfg.Metrics,
		file:    file,
		lastSeq: recoverLastSeq(data),
		typed:   make(map[string][]*subscription),
	}, nil
}

// Path returns the path of the underlying journal file.
func (l *Log) Path() string {
	return l.path
}

// Append assigns the next sequence, stamps the capture time, writes the
// record durably and fans it out to listeners. The payload may be any
// json-marshalable value (json.RawMessage is passed through).
//
// A failed write still consumes the sequence: the bytes may have partially
// reached storage, and reusing the number could alias two records. Callers
// that retry get a fresh sequence.
func (l *Log) Append(eventType string, payload any) (Record, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Record{}, fmt.Errorf("marshal payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Record{}, ErrClosed
	}
	if l.file == nil {
		// Reset removed the file; recreate it on first use.
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return Record{}, fmt.Errorf("reopen journal: %w", err)
		}
		l.file = file
	}

	l.lastSeq++
	rec := Record{
		Seq:     l.lastSeq,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: raw,
	}

	line, err := encodeRecord(rec)
	if err != nil {
		l.metrics.IncAppendError()
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	if _, err := l.file.Write(line); err != nil {
		l.metrics.IncAppendError()
		return Record{}, fmt.Errorf("write record: %w", err)
	}
	if !l.noSync {
		if err := l.file.Sync(); err != nil {
			l.metrics.IncAppendError()
			return Record{}, fmt.Errorf("sync record: %w", err)
		}
	}

	l.metrics.IncAppend()
	start := time.Now()
	l.notify(rec)
	l.metrics.ObserveFanout(time.Since(start))

	if l.archiver != nil {
		if err := l.archiver.Archive(rec); err != nil {
			l.metrics.IncArchiveError()
			logs.Errorf("eventlog: archive seq %d: %v", rec.Seq, err)
		}
	}

	return rec, nil
}

// LastSeq returns the last assigned sequence. It reads the in-memory
// counter and never touches the file.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Close drops all listeners and releases the file handle. Persisted data
// and the sequence counter are left intact; further appends fail with
// ErrClosed.
func (l *Log) Close() error {
	l.subMu.Lock()
	l.global = nil
	l.typed = make(map[string][]*subscription)
	l.subMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ResetForTest wipes the journal: counter to zero, listeners dropped, file
// removed (absence tolerated). The file is recreated by the next append.
// Destructive; tests only.
func (l *Log) ResetForTest() error {
	l.subMu.Lock()
	l.global = nil
	l.typed = make(map[string][]*subscription)
	l.subMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove journal: %w", err)
	}
	l.lastSeq = 0
	l.closed = false
	return nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
