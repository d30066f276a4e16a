package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/eventlog"
	"main/internal/obs"

	"github.com/yanun0323/logs"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a bounded, non-blocking record queue. It decouples slow
// consumers from the journal's synchronous fan-out: the bridge listener
// only enqueues, so the appender never waits on a consumer.
type Queue struct {
	ch     chan eventlog.Record
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan eventlog.Record, capacity)}
}

// TryPublish enqueues a record without blocking.
func (q *Queue) TryPublish(rec eventlog.Record) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new records.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes records until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(eventlog.Record)) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-q.ch:
			if !ok {
				return
			}
			handler(rec)
		}
	}
}

// Bridge subscribes q to the journal and enqueues matching records. With no
// types it sees every record; otherwise one per-type subscription is made
// per tag. A full or closed queue drops the record and counts the drop:
// back-pressure sheds load here instead of stalling the appender.
// The returned cancel tears down every subscription and is idempotent.
func Bridge(l *eventlog.Log, q *Queue, metrics *obs.Metrics, types ...string) (cancel func()) {
	listener := func(rec eventlog.Record) {
		switch err := q.TryPublish(rec); {
		case errors.Is(err, ErrQueueFull):
			metrics.IncQueueDrop()
		case errors.Is(err, ErrQueueClosed):
			metrics.IncQueueClosed()
		case err != nil:
			logs.Errorf("bus: publish seq %d: %v", rec.Seq, err)
		}
	}

	if len(types) == 0 {
		return l.Subscribe(listener)
	}
	cancels := make([]func(), 0, len(types))
	for _, t := range types {
		cancels = append(cancels, l.SubscribeType(t, listener))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
