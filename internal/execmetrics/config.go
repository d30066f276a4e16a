package execmetrics

import (
	"fmt"
	"time"
)

const (
	defaultQueueSize  = 1024
	defaultBufferSize = 64 * 1024
)

// Config controls the collector's persistence behavior.
type Config struct {
	// Path is the NDJSON sample store, separate from the event journal.
	Path          string
	QueueSize     int
	BufferSize    int
	FlushInterval time.Duration
	SyncInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("invalid collector config: Path is empty")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("invalid collector config: QueueSize must be > 0")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid collector config: BufferSize must be > 0")
	}
	if c.FlushInterval < 0 {
		return fmt.Errorf("invalid collector config: FlushInterval must be >= 0")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("invalid collector config: SyncInterval must be >= 0")
	}
	return nil
}
