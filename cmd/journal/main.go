package main

import (
	"context"
	"flag"
	"log"
	"time"

	"main/internal/archive"
	"main/internal/bus"
	"main/internal/eventlog"
	"main/internal/execmetrics"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	journalPath := flag.String("journal-path", "", "Journal file (overrides config)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *journalPath != "" {
		cfg.Journal.Path = *journalPath
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "journal",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	metrics := obs.NewMetrics()
	journal, err := eventlog.Open(eventlog.Config{
		Path:    cfg.Journal.Path,
		NoSync:  cfg.Journal.NoSync,
		Metrics: metrics,
	})
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	if err := run(context.Background(), cfg, journal, metrics); err != nil {
		log.Fatalf("journal daemon: %v", err)
	}
}

func run(ctx context.Context, cfg ops.Loaded, journal *eventlog.Log, metrics *obs.Metrics) error {
	collector, err := execmetrics.NewCollector(execmetrics.Config{
		Path:          cfg.Metrics.Path,
		QueueSize:     cfg.Metrics.QueueSize,
		FlushInterval: cfg.Metrics.FlushInterval,
		SyncInterval:  cfg.Metrics.SyncInterval,
	})
	if err != nil {
		return err
	}
	if err := collector.Start(ctx); err != nil {
		return err
	}
	defer collector.Close()
	defer collector.Attach(journal)()

	breaker := risk.NewBreaker(cfg.Risk)
	defer breaker.Attach(journal)()

	if cfg.Archive.Enabled {
		client, err := conn.New(conn.Option{
			Host:     cfg.Archive.Host,
			Port:     cfg.Archive.Port,
			User:     cfg.Archive.User,
			Password: cfg.Archive.Password,
			Database: cfg.Archive.Database,
			SSLMode:  cfg.Archive.SSLMode,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		writer, err := archive.NewWriter(client)
		if err != nil {
			return err
		}
		n, err := writer.Backfill(journal)
		if err != nil {
			return err
		}
		if n > 0 {
			logs.Infof("archive: backfilled %d records", n)
		}
		journal.SetArchiver(writer)
	}

	// Risk transitions are surfaced on the daemon's own pace, off the
	// append path.
	q := bus.NewQueue(1024)
	defer q.Close()
	defer bus.Bridge(journal, q, metrics, schema.EventRiskTrip, schema.EventRiskRelease)()
	go q.Run(ctx, func(rec eventlog.Record) {
		logs.Warnf("journal: %s at seq %d", rec.Type, rec.Seq)
	})

	start := time.Now()
	heartbeat := time.NewTicker(cfg.Daemon.HeartbeatInterval)
	defer heartbeat.Stop()
	stats := time.NewTicker(cfg.Daemon.StatsInterval)
	defer stats.Stop()

	logs.Infof("journal: serving %s, last seq %d", journal.Path(), journal.LastSeq())
	for {
		select {
		case <-sys.Shutdown():
			logs.Info("journal: shutting down")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			if _, err := journal.Append(schema.EventHeartbeat, schema.Heartbeat{
				Component: "journald",
				UptimeMs:  time.Since(start).Milliseconds(),
			}); err != nil {
				logs.Errorf("journal: heartbeat append: %v", err)
			}
		case <-stats.C:
			snap := metrics.Snapshot()
			report := collector.Report(cfg.Thresholds)
			logs.Infof("journal: appends=%d errors=%d skips=%d panics=%d drops=%d fanout_avg=%s exec_pass=%t",
				snap.Appends, snap.AppendErrors, snap.DecodeSkips,
				snap.ListenerPanics, snap.QueueDrops, snap.FanoutLatency.Avg, report.Pass)
		}
	}
}
