package execmetrics

import (
	"fmt"
	"math"
	"sort"

	"main/internal/schema"
)

// Thresholds are the fixed pass/fail gates a report is judged against.
type Thresholds struct {
	LatencyP95MaxMs   int64   `json:"latencyP95MaxMs"`
	MinSuccessRate    float64 `json:"minSuccessRate"`
	SlippageP95MaxBps int64   `json:"slippageP95MaxBps"`
}

// DefaultThresholds returns the platform acceptance gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LatencyP95MaxMs:   800,
		MinSuccessRate:    0.97,
		SlippageP95MaxBps: 50,
	}
}

// Report summarizes the collected outcomes against the thresholds.
type Report struct {
	Count          int
	LatencyP50Ms   int64
	LatencyP95Ms   int64
	SuccessRate    float64
	SlippageP95Bps int64
	Pass           bool
	Failures       []string
}

// Report computes latency and slippage percentiles and the success rate
// over every sample recorded so far. Slippage is judged on magnitude.
// An empty collector passes vacuously.
func (c *Collector) Report(th Thresholds) Report {
	c.mu.Lock()
	samples := append([]schema.ExecutionOutcome(nil), c.samples...)
	c.mu.Unlock()

	r := Report{Count: len(samples), Pass: true}
	if len(samples) == 0 {
		return r
	}

	latencies := make([]int64, 0, len(samples))
	slippages := make([]int64, 0, len(samples))
	successes := 0
	for _, s := range samples {
		latencies = append(latencies, s.LatencyMs)
		slip := s.SlippageBps
		if slip < 0 {
			slip = -slip
		}
		slippages = append(slippages, slip)
		if s.Success {
			successes++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	sort.Slice(slippages, func(i, j int) bool { return slippages[i] < slippages[j] })

	r.LatencyP50Ms = percentile(latencies, 0.50)
	r.LatencyP95Ms = percentile(latencies, 0.95)
	r.SlippageP95Bps = percentile(slippages, 0.95)
	r.SuccessRate = float64(successes) / float64(len(samples))

	if th.LatencyP95MaxMs > 0 && r.LatencyP95Ms > th.LatencyP95MaxMs {
		r.Failures = append(r.Failures,
			fmt.Sprintf("latency p95 %dms > %dms", r.LatencyP95Ms, th.LatencyP95MaxMs))
	}
	if th.MinSuccessRate > 0 && r.SuccessRate < th.MinSuccessRate {
		r.Failures = append(r.Failures,
			fmt.Sprintf("success rate %.4f < %.4f", r.SuccessRate, th.MinSuccessRate))
	}
	if th.SlippageP95MaxBps > 0 && r.SlippageP95Bps > th.SlippageP95MaxBps {
		r.Failures = append(r.Failures,
			fmt.Sprintf("slippage p95 %dbps > %dbps", r.SlippageP95Bps, th.SlippageP95MaxBps))
	}
	r.Pass = len(r.Failures) == 0
	return r
}

// percentile is nearest-rank over an ascending slice.
func percentile(sorted []int64, q float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(q * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
