package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight journal counters and latency stats. All
// methods are safe on a nil receiver so instrumentation stays optional.
type Metrics struct {
	appends        uint64
	appendErrors   uint64
	archiveErrors  uint64
	decodeSkips    uint64
	listenerPanics uint64
	queueDrops     uint64
	queueClosed    uint64

	fanoutLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Appends        uint64
	AppendErrors   uint64
	ArchiveErrors  uint64
	DecodeSkips    uint64
	ListenerPanics uint64
	QueueDrops     uint64
	QueueClosed    uint64
	FanoutLatency  LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncAppend records a successfully persisted record.
func (m *Metrics) IncAppend() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appends, 1)
}

// IncAppendError records a failed append.
func (m *Metrics) IncAppendError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appendErrors, 1)
}

// IncArchiveError records a failed archiver delivery.
func (m *Metrics) IncArchiveError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.archiveErrors, 1)
}

// IncDecodeSkip records a malformed line skipped during a scan.
func (m *Metrics) IncDecodeSkip() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.decodeSkips, 1)
}

// IncListenerPanic records a listener that panicked during fan-out.
func (m *Metrics) IncListenerPanic() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.listenerPanics, 1)
}

// IncQueueDrop records a bridge publish dropped on a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a publish attempt against a closed queue.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveFanout measures one append's listener fan-out.
func (m *Metrics) ObserveFanout(d time.Duration) {
	if m == nil {
		return
	}
	m.fanoutLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Appends:        atomic.LoadUint64(&m.appends),
		AppendErrors:   atomic.LoadUint64(&m.appendErrors),
		ArchiveErrors:  atomic.LoadUint64(&m.archiveErrors),
		DecodeSkips:    atomic.LoadUint64(&m.decodeSkips),
		ListenerPanics: atomic.LoadUint64(&m.listenerPanics),
		QueueDrops:     atomic.LoadUint64(&m.queueDrops),
		QueueClosed:    atomic.LoadUint64(&m.queueClosed),
		FanoutLatency:  m.fanoutLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
