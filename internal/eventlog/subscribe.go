package eventlog

import "github.com/yanun0323/logs"

// Listener receives records synchronously during append. A listener that
// blocks delays the appender and every listener behind it; consumers that
// cannot keep up should drain through a bus.Queue instead. Listeners must
// not call Append inline: fan-out runs inside the append critical section.
type Listener func(Record)

type subscription struct {
	fn Listener
}

// Subscribe registers fn for every record appended from now on. There is no
// backlog replay; catch up with Read before subscribing. The returned
// cancel removes exactly this registration and is idempotent.
func (l *Log) Subscribe(fn Listener) (cancel func()) {
	s := &subscription{fn: fn}
	l.subMu.Lock()
	l.global = append(l.global, s)
	l.subMu.Unlock()
	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		l.global = removeSub(l.global, s)
	}
}

// SubscribeType registers fn for records of exactly eventType. A per-type
// set is dropped once its last listener cancels, so churn of unique types
// does not grow the registry.
func (l *Log) SubscribeType(eventType string, fn Listener) (cancel func()) {
	s := &subscription{fn: fn}
	l.subMu.Lock()
	l.typed[eventType] = append(l.typed[eventType], s)
	l.subMu.Unlock()
	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		rest := removeSub(l.typed[eventType], s)
		if len(rest) == 0 {
			delete(l.typed, eventType)
		} else {
			l.typed[eventType] = rest
		}
	}
}

// notify delivers rec to a snapshot of the listener sets: the global set
// first, then the per-type set, each in registration order. The snapshot
// keeps listeners free to cancel themselves (or others) mid-delivery.
func (l *Log) notify(rec Record) {
	l.subMu.Lock()
	snapshot := make([]*subscription, 0, len(l.global)+len(l.typed[rec.Type]))
	snapshot = append(snapshot, l.global...)
	snapshot = append(snapshot, l.typed[rec.Type]...)
	l.subMu.Unlock()

	for _, s := range snapshot {
		l.deliver(s, rec)
	}
}

// deliver isolates one listener: a panic is logged and dropped so it cannot
// fail the append or starve the listeners behind it.
func (l *Log) deliver(s *subscription, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.IncListenerPanic()
			logs.Errorf("eventlog: listener panic on seq %d: %v", rec.Seq, r)
		}
	}()
	s.fn(rec)
}

func removeSub(subs []*subscription, target *subscription) []*subscription {
	for i, s := range subs {
		if s == target {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
