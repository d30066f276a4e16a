package execmetrics

import (
	"testing"

	"main/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportEmptyPassesVacuously(t *testing.T) {
	c := startedCollector(t)
	defer c.Close()

	r := c.Report(DefaultThresholds())
	assert.Zero(t, r.Count)
	assert.True(t, r.Pass)
	assert.Empty(t, r.Failures)
}

func TestReportPercentilesAndPass(t *testing.T) {
	c := startedCollector(t)
	defer c.Close()

	// Latencies 1..100ms, 98% success, slippage within the 50bps gate.
	for i := 1; i <= 100; i++ {
		slip := int64(10)
		if i%2 == 0 {
			slip = -10
		}
		require.NoError(t, c.TryRecord(schema.ExecutionOutcome{
			OrderID:     uint64(i),
			LatencyMs:   int64(i),
			SlippageBps: slip,
			Success:     i > 2,
		}))
	}

	r := c.Report(DefaultThresholds())
	assert.Equal(t, 100, r.Count)
	assert.Equal(t, int64(50), r.LatencyP50Ms)
	assert.Equal(t, int64(95), r.LatencyP95Ms)
	assert.Equal(t, int64(10), r.SlippageP95Bps, "slippage judged on magnitude")
	assert.InDelta(t, 0.98, r.SuccessRate, 1e-9)
	assert.True(t, r.Pass)
}

func TestReportFailsEachGate(t *testing.T) {
	c := startedCollector(t)
	defer c.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.TryRecord(schema.ExecutionOutcome{
			LatencyMs:   1500,
			SlippageBps: -90,
			Success:     false,
		}))
	}

	r := c.Report(DefaultThresholds())
	assert.False(t, r.Pass)
	require.Len(t, r.Failures, 3)
	assert.Contains(t, r.Failures[0], "latency p95")
	assert.Contains(t, r.Failures[1], "success rate")
	assert.Contains(t, r.Failures[2], "slippage p95")
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []int64{10, 20, 30, 40}
	assert.Equal(t, int64(20), percentile(sorted, 0.50))
	assert.Equal(t, int64(40), percentile(sorted, 0.95))
	assert.Equal(t, int64(10), percentile(sorted, 0.0))
	assert.Zero(t, percentile(nil, 0.95))
}
