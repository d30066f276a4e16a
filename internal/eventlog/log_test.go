package eventlog

import (
	"os"
	"path/filepath"
	"testing"

	"main/internal/obs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(Config{Path: filepath.Join(t.TempDir(), "events.ndjson")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendSequencesAreStrictlyIncreasing(t *testing.T) {
	l := openTestLog(t)

	var lastTs int64
	for i := 1; i <= 10; i++ {
		rec, err := l.Append("trade.open", map[string]int{"i": i})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), rec.Seq)
		assert.GreaterOrEqual(t, rec.Ts, lastTs)
		lastTs = rec.Ts
	}
	assert.Equal(t, uint64(10), l.LastSeq())
}

func TestOpenEmptyPathFails(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestOpenMissingFileIsEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "events.ndjson")
	l, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, uint64(0), l.LastSeq())

	recs, err := l.Read(ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecoveryAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	l, err := Open(Config{Path: path})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := l.Append("heartbeat", nil)
		require.NoError(t, err)
	}
	require.NoError(t, l.Close())

	reopened, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint64(5), reopened.LastSeq())

	rec, err := reopened.Append("heartbeat", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), rec.Seq)
}

func TestRecoveryToleratesTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	l, err := Open(Config{Path: path})
	require.NoError(t, err)
	_, err = l.Append("trade.open", map[string]string{"symbol": "BTCUSDT"})
	require.NoError(t, err)
	_, err = l.Append("trade.close", map[string]string{"symbol": "BTCUSDT"})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// Simulate a crash mid-write: a partial line with no terminator.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"seq":3,"ts":17000`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint64(2), reopened.LastSeq())
}

func TestRecoveryIgnoresNonJSONTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	l, err := Open(Config{Path: path})
	require.NoError(t, err)
	_, err = l.Append("heartbeat", nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	require.NoError(t, os.WriteFile(path, append(readAll(t, path), []byte("###garbage###\n")...), 0o644))

	reopened, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint64(1), reopened.LastSeq())
}

func TestAppendAfterCloseFails(t *testing.T) {
	l := openTestLog(t)
	require.NoError(t, l.Close())

	_, err := l.Append("heartbeat", nil)
	assert.ErrorIs(t, err, ErrClosed)
	// Counter survives close.
	assert.Equal(t, uint64(0), l.LastSeq())
}

func TestAppendUnmarshalablePayloadConsumesNoSequence(t *testing.T) {
	l := openTestLog(t)

	_, err := l.Append("bad", func() {})
	require.Error(t, err)
	assert.Equal(t, uint64(0), l.LastSeq())

	rec, err := l.Append("heartbeat", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Seq)
}

func TestResetForTest(t *testing.T) {
	metrics := obs.NewMetrics()
	path := filepath.Join(t.TempDir(), "events.ndjson")
	l, err := Open(Config{Path: path, Metrics: metrics})
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Append("trade.open", nil)
	require.NoError(t, err)
	_, err = l.Append("trade.close", nil)
	require.NoError(t, err)

	require.NoError(t, l.ResetForTest())
	assert.Equal(t, uint64(0), l.LastSeq())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Reset twice: the file is already absent and that is fine.
	require.NoError(t, l.ResetForTest())

	rec, err := l.Append("trade.open", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, uint64(3), metrics.Snapshot().Appends)
}

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
