package risk

import (
	"encoding/json"
	"time"

	"main/internal/eventlog"
	"main/internal/schema"

	"github.com/yanun0323/logs"
)

// Attach feeds the breaker from the journal: every trade.close outcome is
// recorded in the window and checked against the outcome's equity, and
// trip/release transitions are appended back as risk.trip / risk.release
// events.
//
// The re-appends run on fresh goroutines: fan-out executes inside the
// append critical section, so a listener appending inline would deadlock.
// The transition state itself needs no lock because fan-out delivery is
// serialized by the appender.
func (b *Breaker) Attach(l *eventlog.Log) (cancel func()) {
	var (
		tripped   bool
		trippedAt time.Time
	)
	return l.SubscribeType(schema.EventTradeClose, func(rec eventlog.Record) {
		var outcome schema.TradeOutcome
		if err := json.Unmarshal(rec.Payload, &outcome); err != nil {
			logs.Errorf("risk: decode trade outcome seq %d: %v", rec.Seq, err)
			return
		}

		b.RecordPnL(toFloat(outcome.RealizedPnL))
		d := b.Check(toFloat(outcome.Equity))
		now := b.now()

		switch {
		case !d.Allowed && !tripped:
			tripped, trippedAt = true, now
			trip := schema.RiskTrip{
				Reason:      d.Reason.String(),
				RollingLoss: d.RollingLoss,
				Equity:      outcome.Equity,
				Until:       now.Add(b.cfg.Cooldown).UnixMilli(),
			}
			go func() {
				if _, err := l.Append(schema.EventRiskTrip, trip); err != nil {
					logs.Errorf("risk: append trip: %v", err)
				}
			}()
		case d.Allowed && tripped:
			tripped = false
			release := schema.RiskRelease{TrippedForMs: now.Sub(trippedAt).Milliseconds()}
			go func() {
				if _, err := l.Append(schema.EventRiskRelease, release); err != nil {
					logs.Errorf("risk: append release: %v", err)
				}
			}()
		}
	})
}
