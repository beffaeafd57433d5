package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollerCoalescesOverlappingTicks(t *testing.T) {
	spy := newSpyGateway()
	spy.listGate = make(chan struct{})
	spy.setJobs([]model.Job{{ID: "a", Status: model.JobStatusQueued}})

	cache := NewCache()
	p := NewPoller(spy, cache, testLogger(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, p.Poll(context.Background()))
	}()

	// Wait until the first fetch is parked inside the gateway.
	require.Eventually(t, func() bool {
		return spy.callCount(gateway.OpListJobs) == 1
	}, time.Second, time.Millisecond)

	// A tick during an in-flight fetch is dropped, not queued.
	assert.False(t, p.Poll(context.Background()))
	assert.Equal(t, 1, spy.callCount(gateway.OpListJobs))

	close(spy.listGate)
	wg.Wait()

	jobs, ok := cache.Jobs()
	require.True(t, ok)
	assert.Len(t, jobs, 1)

	// With nothing in flight, polling resumes.
	spy.mu.Lock()
	spy.listGate = nil
	spy.mu.Unlock()
	assert.True(t, p.Poll(context.Background()))
	assert.Equal(t, 2, spy.callCount(gateway.OpListJobs))
}

func TestPollerStaleResponseDiscarded(t *testing.T) {
	spy := newSpyGateway()
	cache := NewCache()
	p := NewPoller(spy, cache, testLogger(), nil)

	newer := []model.Job{{ID: "a", Status: model.JobStatusProcessing}}
	older := []model.Job{{ID: "a", Status: model.JobStatusQueued}}

	p.issued = 2
	p.complete(2, newer, nil)
	p.complete(1, older, nil)

	jobs, ok := cache.Jobs()
	require.True(t, ok)
	assert.Equal(t, model.JobStatusProcessing, jobs[0].Status,
		"a response issued earlier must not overwrite a later one")
}

func TestPollerStalenessSurfacedOnce(t *testing.T) {
	spy := newSpyGateway()
	spy.jobsErr = errors.New("daemon unreachable")

	now := time.Unix(0, 0)
	notes := &recordingNotifier{}
	p := NewPoller(spy, NewCache(), testLogger(), notes,
		WithStaleTolerance(30*time.Second),
		WithClock(func() time.Time { return now }))

	// Failures within the tolerance window stay silent.
	p.Poll(context.Background())
	assert.Empty(t, notes.all())
	assert.False(t, p.Stale())
	assert.Error(t, p.LastError())

	// Past the window the failure is surfaced exactly once.
	now = now.Add(31 * time.Second)
	p.Poll(context.Background())
	p.Poll(context.Background())
	seen := notes.all()
	require.Len(t, seen, 1)
	assert.Equal(t, LevelFailure, seen[0].Level)
	assert.Contains(t, seen[0].Message, "daemon unreachable")
	assert.True(t, p.Stale())

	// A success resets the latch; a later outage surfaces again.
	spy.jobsErr = nil
	p.Poll(context.Background())
	assert.NoError(t, p.LastError())
	assert.False(t, p.Stale())

	spy.jobsErr = errors.New("daemon unreachable")
	now = now.Add(31 * time.Second)
	p.Poll(context.Background())
	assert.Len(t, notes.all(), 2)
}

func TestPollerCountsIllegalTransitions(t *testing.T) {
	spy := newSpyGateway()
	cache := NewCache()

	type anomaly struct {
		jobID    string
		from, to model.JobStatus
	}
	var seen []anomaly
	p := NewPoller(spy, cache, testLogger(), nil,
		WithAnomalyFunc(func(jobID string, from, to model.JobStatus) {
			seen = append(seen, anomaly{jobID, from, to})
		}))

	spy.setJobs([]model.Job{
		{ID: "a", Status: model.JobStatusCompleted},
		{ID: "b", Status: model.JobStatusQueued},
	})
	p.Poll(context.Background())
	assert.Zero(t, p.Anomalies(), "first snapshot has nothing to compare against")

	// a: completed -> queued is illegal; b: queued -> processing is fine;
	// c is new and exempt from transition checks.
	spy.setJobs([]model.Job{
		{ID: "a", Status: model.JobStatusQueued},
		{ID: "b", Status: model.JobStatusProcessing},
		{ID: "c", Status: model.JobStatusQueued},
	})
	p.Poll(context.Background())

	assert.Equal(t, 1, p.Anomalies())
	require.Len(t, seen, 1)
	assert.Equal(t, anomaly{"a", model.JobStatusCompleted, model.JobStatusQueued}, seen[0])

	// The anomalous snapshot is still applied in full.
	jobs, ok := cache.Jobs()
	require.True(t, ok)
	assert.Len(t, jobs, 3)
	assert.Equal(t, model.JobStatusQueued, jobs[0].Status)
}

func TestPollerFlagsUnknownStatus(t *testing.T) {
	spy := newSpyGateway()
	cache := NewCache()

	var seen []model.JobStatus
	p := NewPoller(spy, cache, testLogger(), nil,
		WithAnomalyFunc(func(jobID string, from, to model.JobStatus) {
			seen = append(seen, to)
		}))

	spy.setJobs([]model.Job{{ID: "a", Status: model.JobStatusQueued}})
	p.Poll(context.Background())

	// A status outside the closed set is an anomaly even though no
	// transition rule matches it.
	spy.setJobs([]model.Job{{ID: "a", Status: model.JobStatus("exploded")}})
	p.Poll(context.Background())

	assert.Equal(t, 1, p.Anomalies())
	require.Len(t, seen, 1)
	assert.Equal(t, model.JobStatus("exploded"), seen[0])

	// The snapshot is applied regardless; rendering shows the raw value.
	jobs, ok := cache.Jobs()
	require.True(t, ok)
	assert.Equal(t, model.JobStatus("exploded"), jobs[0].Status)
}

func TestPollerStartPollsImmediately(t *testing.T) {
	spy := newSpyGateway()
	spy.setJobs([]model.Job{{ID: "a", Status: model.JobStatusQueued}})
	cache := NewCache()
	p := NewPoller(spy, cache, testLogger(), nil, WithInterval(time.Hour))

	stop := p.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool {
		_, ok := cache.Jobs()
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, spy.callCount(gateway.OpListJobs))
}
