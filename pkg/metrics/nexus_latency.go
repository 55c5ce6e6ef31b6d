// Package metrics keeps in-process counters exposed on /health.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps the most recent durations in a fixed window.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
}

func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = 256
	}
	return &LatencyTracker{samples: make([]time.Duration, window)}
}

// Record overwrites the oldest sample once the window is full.
func (t *LatencyTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = d
	t.next++
	if t.next == len(t.samples) {
		t.next = 0
		t.full = true
	}
}

// Stats summarizes the current window.
func (t *LatencyTracker) Stats() LatencyStats {
	t.mu.Lock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	window := make([]time.Duration, n)
	copy(window, t.samples[:n])
	t.mu.Unlock()

	if n == 0 {
		return LatencyStats{}
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	return LatencyStats{
		Samples: n,
		Min:     window[0],
		Max:     window[n-1],
		Avg:     sum / time.Duration(n),
		P50:     percentile(window, 0.50),
		P95:     percentile(window, 0.95),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	return sorted[int(float64(len(sorted)-1)*p)]
}

type LatencyStats struct {
	Samples int
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P95     time.Duration
}

func (s LatencyStats) ToMap() map[string]any {
	return map[string]any{
		"samples": s.Samples,
		"min_ms":  s.Min.Milliseconds(),
		"max_ms":  s.Max.Milliseconds(),
		"avg_ms":  s.Avg.Milliseconds(),
		"p50_ms":  s.P50.Milliseconds(),
		"p95_ms":  s.P95.Milliseconds(),
	}
}
