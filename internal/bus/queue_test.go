package bus

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"main/internal/eventlog"
	"main/internal/obs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *eventlog.Log {
	t.Helper()
	l, err := eventlog.Open(eventlog.Config{
		Path:   filepath.Join(t.TempDir(), "events.ndjson"),
		NoSync: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestTryPublishFullQueue(t *testing.T) {
	q := NewQueue(1)

	require.NoError(t, q.TryPublish(eventlog.Record{Seq: 1}))
	assert.ErrorIs(t, q.TryPublish(eventlog.Record{Seq: 2}), ErrQueueFull)
}

func TestTryPublishClosedQueue(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	assert.ErrorIs(t, q.TryPublish(eventlog.Record{Seq: 1}), ErrQueueClosed)
}

func TestRunDrainsUntilClosed(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryPublish(eventlog.Record{Seq: 1}))
	require.NoError(t, q.TryPublish(eventlog.Record{Seq: 2}))
	q.Close()

	var got []uint64
	q.Run(context.Background(), func(rec eventlog.Record) { got = append(got, rec.Seq) })
	assert.Equal(t, []uint64{1, 2}, got)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(eventlog.Record) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on canceled context")
	}
}

func TestBridgeForwardsSelectedTypes(t *testing.T) {
	l := openTestLog(t)
	q := NewQueue(8)
	metrics := obs.NewMetrics()

	cancel := Bridge(l, q, metrics, "A", "B")
	defer cancel()

	for _, typ := range []string{"A", "C", "B", "A"} {
		_, err := l.Append(typ, nil)
		require.NoError(t, err)
	}
	q.Close()

	var got []string
	q.Run(context.Background(), func(rec eventlog.Record) { got = append(got, rec.Type) })
	assert.Equal(t, []string{"A", "B", "A"}, got)
}

func TestBridgeCountsDropsInsteadOfBlocking(t *testing.T) {
	l := openTestLog(t)
	q := NewQueue(1)
	metrics := obs.NewMetrics()

	cancel := Bridge(l, q, metrics)
	defer cancel()

	for i := 0; i < 3; i++ {
		_, err := l.Append("A", nil)
		require.NoError(t, err)
	}

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.QueueDrops)
}
