package execmetrics

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/schema"
)

var (
	ErrQueueFull      = errors.New("collector queue full")
	ErrClosed         = errors.New("collector closed")
	ErrNotStarted     = errors.New("collector not started")
	ErrAlreadyStarted = errors.New("collector already started")
)

// Collector accumulates per-order execution outcomes in memory and persists
// them to its own newline-delimited store, independent of the event journal.
type Collector struct {
	cfg Config
	ch  chan schema.ExecutionOutcome
	wg  sync.WaitGroup
	err atomic.Value

	started uint32
	closed  uint32

	mu      sync.Mutex
	samples []schema.ExecutionOutcome
}

// NewCollector creates a collector and ensures the target directory exists.
func NewCollector(cfg Config) (*Collector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	return &Collector{
		cfg: cfg,
		ch:  make(chan schema.ExecutionOutcome, cfg.QueueSize),
	}, nil
}

// Start runs the persistence loop in a new goroutine.
func (c *Collector) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&c.started, 0, 1) {
		return ErrAlreadyStarted
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
	return nil
}

// Close stops the collector and flushes any buffered data.
func (c *Collector) Close() error {
	if atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		close(c.ch)
	}
	c.wg.Wait()
	return c.Err()
}

// Err returns the first error observed by the persistence loop, if any.
func (c *Collector) Err() error {
	if v := c.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// TryRecord enqueues an outcome without blocking. On success the sample is
// also added to the in-memory window Report draws from; a dropped sample
// appears in neither.
func (c *Collector) TryRecord(outcome schema.ExecutionOutcome) error {
	if atomic.LoadUint32(&c.closed) != 0 {
		return ErrClosed
	}
	if atomic.LoadUint32(&c.started) == 0 {
		return ErrNotStarted
	}
	if err := c.Err(); err != nil {
		return err
	}

	select {
	case c.ch <- outcome:
	default:
		return ErrQueueFull
	}

	c.mu.Lock()
	c.samples = append(c.samples, outcome)
	c.mu.Unlock()
	return nil
}

func (c *Collector) run(ctx context.Context) {
	file, err := os.OpenFile(c.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		c.setErr(err)
		return
	}
	buf := bufio.NewWriterSize(file, c.cfg.BufferSize)

	var (
		flushC      <-chan time.Time
		syncC       <-chan time.Time
		flushTicker *time.Ticker
		syncTicker  *time.Ticker
	)
	if c.cfg.FlushInterval > 0 {
		flushTicker = time.NewTicker(c.cfg.FlushInterval)
		flushC = flushTicker.C
	}
	if c.cfg.SyncInterval > 0 {
		syncTicker = time.NewTicker(c.cfg.SyncInterval)
		syncC = syncTicker.C
	}

	defer func() {
		if flushTicker != nil {
			flushTicker.Stop()
		}
		if syncTicker != nil {
			syncTicker.Stop()
		}
		if err := buf.Flush(); err != nil && c.Err() == nil {
			c.setErr(err)
		}
		if err := file.Sync(); err != nil && c.Err() == nil {
			c.setErr(err)
		}
		if err := file.Close(); err != nil && c.Err() == nil {
			c.setErr(err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.drainNonBlocking(buf)
			return
		case outcome, ok := <-c.ch:
			if !ok {
				return
			}
			if err := writeSample(buf, outcome); err != nil {
				c.setErr(err)
				return
			}
		case <-flushC:
			if err := buf.Flush(); err != nil {
				c.setErr(err)
				return
			}
		case <-syncC:
			if err := buf.Flush(); err != nil {
				c.setErr(err)
				return
			}
			if err := file.Sync(); err != nil {
				c.setErr(err)
				return
			}
		}
	}
}

func (c *Collector) drainNonBlocking(buf *bufio.Writer) {
	for {
		select {
		case outcome, ok := <-c.ch:
			if !ok {
				return
			}
			if err := writeSample(buf, outcome); err != nil {
				c.setErr(err)
				return
			}
		default:
			return
		}
	}
}

func writeSample(buf *bufio.Writer, outcome schema.ExecutionOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return err
	}
	return buf.WriteByte('\n')
}

func (c *Collector) setErr(err error) {
	if err == nil {
		return
	}
	if c.err.Load() != nil {
		return
	}
	c.err.Store(err)
}
