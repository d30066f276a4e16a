package execmetrics

import (
	"encoding/json"
	"errors"

	"main/internal/eventlog"
	"main/internal/schema"

	"github.com/yanun0323/logs"
)

// Attach feeds the collector from the journal's exec.sample events. The
// listener only decodes and enqueues; persistence stays on the collector's
// own goroutine, so the appender is never blocked on collector I/O.
func (c *Collector) Attach(l *eventlog.Log) (cancel func()) {
	return l.SubscribeType(schema.EventExecSample, func(rec eventlog.Record) {
		var outcome schema.ExecutionOutcome
		if err := json.Unmarshal(rec.Payload, &outcome); err != nil {
			logs.Errorf("execmetrics: decode sample seq %d: %v", rec.Seq, err)
			return
		}
		if err := c.TryRecord(outcome); err != nil && !errors.Is(err, ErrQueueFull) {
			logs.Errorf("execmetrics: record sample seq %d: %v", rec.Seq, err)
		}
	})
}
