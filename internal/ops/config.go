package ops

import (
	"encoding/json"
	"os"
	"time"

	"main/internal/execmetrics"
	"main/internal/risk"

	"github.com/yanun0323/errors"
)

const (
	defaultJournalPath       = "testdata/journal/events.ndjson"
	defaultMetricsPath       = "testdata/journal/exec-samples.ndjson"
	defaultHeartbeatInterval = 30 * time.Second
	defaultStatsInterval     = time.Minute
)

// FileConfig mirrors the JSON config layout. Durations are nanoseconds, as
// encoding/json renders time.Duration.
type FileConfig struct {
	Journal JournalConfig `json:"journal"`
	Risk    risk.Config   `json:"risk"`
	Metrics MetricsConfig `json:"metrics"`
	Archive ArchiveConfig `json:"archive"`
	Daemon  DaemonConfig  `json:"daemon"`
}

// JournalConfig locates the event journal.
type JournalConfig struct {
	Path   string `json:"path"`
	NoSync bool   `json:"noSync"`
}

// MetricsConfig controls the execution metrics collector.
type MetricsConfig struct {
	Path          string                  `json:"path"`
	QueueSize     int                     `json:"queueSize"`
	FlushInterval time.Duration           `json:"flushInterval"`
	SyncInterval  time.Duration           `json:"syncInterval"`
	Thresholds    *execmetrics.Thresholds `json:"thresholds"`
}

// ArchiveConfig enables mirroring journal records into postgres.
type ArchiveConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// DaemonConfig controls the journal daemon's periodic work.
type DaemonConfig struct {
	HeartbeatInterval time.Duration `json:"heartbeatInterval"`
	StatsInterval     time.Duration `json:"statsInterval"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Journal    JournalConfig
	Risk       risk.Config
	Metrics    MetricsConfig
	Thresholds execmetrics.Thresholds
	Archive    ArchiveConfig
	Daemon     DaemonConfig
}

// Load reads a JSON config file and resolves defaults. An empty path yields
// the default configuration.
func Load(path string) (Loaded, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "read config")
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrap(err, "parse config")
		}
	}
	return resolve(cfg), nil
}

func resolve(cfg FileConfig) Loaded {
	loaded := Loaded{
		Journal:    cfg.Journal,
		Risk:       cfg.Risk,
		Metrics:    cfg.Metrics,
		Thresholds: execmetrics.DefaultThresholds(),
		Archive:    cfg.Archive,
		Daemon:     cfg.Daemon,
	}
	if loaded.Journal.Path == "" {
		loaded.Journal.Path = defaultJournalPath
	}
	if loaded.Metrics.Path == "" {
		loaded.Metrics.Path = defaultMetricsPath
	}
	if cfg.Metrics.Thresholds != nil {
		loaded.Thresholds = *cfg.Metrics.Thresholds
	}
	if loaded.Daemon.HeartbeatInterval <= 0 {
		loaded.Daemon.HeartbeatInterval = defaultHeartbeatInterval
	}
	if loaded.Daemon.StatsInterval <= 0 {
		loaded.Daemon.StatsInterval = defaultStatsInterval
	}
	return loaded
}
