package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesOnlyNewRecords(t *testing.T) {
	l := openTestLog(t)
	seedTypes(t, l, "A", "A", "B")

	var got []uint64
	cancel := l.Subscribe(func(rec Record) { got = append(got, rec.Seq) })
	defer cancel()

	assert.Empty(t, got, "no backlog replay on subscribe")

	_, err := l.Append("C", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, got)
}

func TestSubscribeTypeFiltersDelivery(t *testing.T) {
	l := openTestLog(t)

	var got []string
	cancel := l.SubscribeType("trade.open", func(rec Record) { got = append(got, rec.Type) })
	defer cancel()

	seedTypes(t, l, "trade.open", "heartbeat", "trade.open")
	assert.Equal(t, []string{"trade.open", "trade.open"}, got)
}

func TestFanoutOrderGlobalThenTyped(t *testing.T) {
	l := openTestLog(t)

	var order []string
	cancelTyped := l.SubscribeType("A", func(Record) { order = append(order, "typed") })
	defer cancelTyped()
	cancelFirst := l.Subscribe(func(Record) { order = append(order, "global-1") })
	defer cancelFirst()
	cancelSecond := l.Subscribe(func(Record) { order = append(order, "global-2") })
	defer cancelSecond()

	seedTypes(t, l, "A")
	assert.Equal(t, []string{"global-1", "global-2", "typed"}, order)
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	l := openTestLog(t)

	var delivered []uint64
	cancelBad := l.Subscribe(func(Record) { panic("listener exploded") })
	defer cancelBad()
	cancelGood := l.Subscribe(func(rec Record) { delivered = append(delivered, rec.Seq) })
	defer cancelGood()

	rec, err := l.Append("A", nil)
	require.NoError(t, err, "a panicking listener must not fail the append")
	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, []uint64{1}, delivered)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	l := openTestLog(t)

	var first, second int
	cancelFirst := l.Subscribe(func(Record) { first++ })
	cancelSecond := l.Subscribe(func(Record) { second++ })
	defer cancelSecond()

	cancelFirst()
	cancelFirst()

	seedTypes(t, l, "A")
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second, "repeated cancel must not remove other listeners")
}

func TestEmptyTypeRegistryIsDropped(t *testing.T) {
	l := openTestLog(t)

	cancelA := l.SubscribeType("A", func(Record) {})
	cancelB := l.SubscribeType("A", func(Record) {})

	cancelA()
	l.subMu.Lock()
	_, present := l.typed["A"]
	l.subMu.Unlock()
	assert.True(t, present)

	cancelB()
	l.subMu.Lock()
	_, present = l.typed["A"]
	l.subMu.Unlock()
	assert.False(t, present, "last cancel removes the per-type set")
}

func TestListenerMayUnsubscribeItselfDuringDelivery(t *testing.T) {
	l := openTestLog(t)

	var calls int
	var cancel func()
	cancel = l.Subscribe(func(Record) {
		calls++
		cancel()
	})

	seedTypes(t, l, "A", "A")
	assert.Equal(t, 1, calls)
}

func TestCloseDropsListeners(t *testing.T) {
	l := openTestLog(t)
	var calls int
	l.Subscribe(func(Record) { calls++ })
	require.NoError(t, l.Close())

	l.subMu.Lock()
	global := len(l.global)
	l.subMu.Unlock()
	assert.Zero(t, global)
	assert.Zero(t, calls)
}
