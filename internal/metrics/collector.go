// Package metrics provides in-memory gateway round-trip statistics.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single command operation.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Op        string
	Count     int64
	Failures  int64
	AvgTimeMs float64
	MinTimeMs int64
	MaxTimeMs int64
}

// Snapshot represents all gateway statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// Record records one command round trip for an operation.
func (c *Collector) Record(op string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}

	m.Count++
	m.TotalTime += duration
	if failed {
		m.Failures++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Snapshot returns a point-in-time snapshot of all metrics, ordered by
// operation name for stable display.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
	}

	for op, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		snap.Operations = append(snap.Operations, OperationSnapshot{
			Op:        op,
			Count:     m.Count,
			Failures:  m.Failures,
			AvgTimeMs: float64(m.TotalTime.Milliseconds()) / float64(m.Count),
			MinTimeMs: m.MinTime.Milliseconds(),
			MaxTimeMs: m.MaxTime.Milliseconds(),
		})
	}

	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Op < snap.Operations[j].Op
	})

	return snap
}
