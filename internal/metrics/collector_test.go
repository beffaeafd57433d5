package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record("list_jobs", 10*time.Millisecond, false)
	c.Record("list_jobs", 30*time.Millisecond, false)
	c.Record("list_jobs", 20*time.Millisecond, true)
	c.Record("enqueue_ingestion", 5*time.Millisecond, false)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	// Sorted by op name: enqueue_ingestion, list_jobs.
	assert.Equal(t, "enqueue_ingestion", snap.Operations[0].Op)
	assert.Equal(t, int64(1), snap.Operations[0].Count)

	lj := snap.Operations[1]
	assert.Equal(t, "list_jobs", lj.Op)
	assert.Equal(t, int64(3), lj.Count)
	assert.Equal(t, int64(1), lj.Failures)
	assert.Equal(t, int64(10), lj.MinTimeMs)
	assert.Equal(t, int64(30), lj.MaxTimeMs)
	assert.InDelta(t, 20.0, lj.AvgTimeMs, 0.01)
}

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
