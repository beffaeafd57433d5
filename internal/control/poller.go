package control

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

const (
	// DefaultPollInterval is the fixed job-list polling period.
	DefaultPollInterval = 4 * time.Second

	// DefaultStaleTolerance is how long a cached job snapshot stays
	// acceptable while background fetches fail. Beyond it the failure is
	// surfaced instead of silently serving stale data.
	DefaultStaleTolerance = 30 * time.Second
)

// AnomalyFunc observes an illegal status transition between two polls.
type AnomalyFunc func(jobID string, from, to model.JobStatus)

// Poller maintains a fresh job-list snapshot without user action. One fetch
// is in flight at a time; a tick that fires during a fetch is coalesced,
// never queued. Responses are applied in issuance order: a stale response
// arriving after a newer one has been applied is discarded.
type Poller struct {
	gw       Gateway
	cache    *Cache
	logger   *slog.Logger
	notifier Notifier

	interval       time.Duration
	staleTolerance time.Duration
	now            func() time.Time

	mu            sync.Mutex
	inFlight      bool
	issued        uint64
	applied       uint64
	lastSuccess   time.Time
	lastErr       error
	anomalies     int
	staleSurfaced bool
	onAnomaly     AnomalyFunc
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithStaleTolerance overrides the staleness window.
func WithStaleTolerance(d time.Duration) PollerOption {
	return func(p *Poller) { p.staleTolerance = d }
}

// WithClock injects a time source for deterministic tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// WithAnomalyFunc registers a callback for observed illegal transitions.
func WithAnomalyFunc(fn AnomalyFunc) PollerOption {
	return func(p *Poller) { p.onAnomaly = fn }
}

// NewPoller creates a poller writing job snapshots into cache.
func NewPoller(gw Gateway, cache *Cache, logger *slog.Logger, notifier Notifier, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	p := &Poller{
		gw:             gw,
		cache:          cache,
		logger:         logger,
		notifier:       notifier,
		interval:       DefaultPollInterval,
		staleTolerance: DefaultStaleTolerance,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastSuccess = p.now()
	return p
}

// Start runs the polling loop until the returned stop function is called or
// ctx is cancelled. An immediate first poll precedes the ticker.
func (p *Poller) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		p.Poll(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Poll performs one fetch cycle. It returns false when the cycle was
// coalesced because a fetch was already in flight.
func (p *Poller) Poll(ctx context.Context) bool {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return false
	}
	p.inFlight = true
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	jobs, err := p.gw.ListJobs(ctx)
	p.complete(seq, jobs, err)
	return true
}

// complete applies one fetch outcome under the issuance-order guard.
func (p *Poller) complete(seq uint64, jobs []model.Job, err error) {
	p.mu.Lock()
	p.inFlight = false

	if seq <= p.applied {
		// A newer response already landed; discard.
		p.mu.Unlock()
		return
	}
	p.applied = seq

	if err != nil {
		p.lastErr = err
		stale := p.now().Sub(p.lastSuccess) > p.staleTolerance
		surface := stale && !p.staleSurfaced
		if surface {
			p.staleSurfaced = true
		}
		p.mu.Unlock()

		p.logger.Warn("job poll failed", "error", err)
		if surface {
			p.notifier.Notify(Notification{
				Level:   LevelFailure,
				Message: "Job list is stale: " + err.Error(),
			})
		}
		return
	}

	p.lastErr = nil
	p.lastSuccess = p.now()
	p.staleSurfaced = false
	p.mu.Unlock()

	p.checkTransitions(jobs)
	p.cache.Put(ResourceJobs, jobs)
}

// checkTransitions compares the incoming snapshot against the previous one
// and reports statuses outside the closed set and illegal status transitions
// as data-integrity anomalies.
func (p *Poller) checkTransitions(jobs []model.Job) {
	prev, ok := p.cache.Jobs()
	if !ok {
		return
	}

	prevByID := make(map[string]model.JobStatus, len(prev))
	for _, job := range prev {
		prevByID[job.ID] = job.Status
	}

	for _, job := range jobs {
		from := prevByID[job.ID]
		if !job.Status.Known() {
			p.reportAnomaly(job.ID, from, job.Status, "unknown job status observed")
			continue
		}
		if _, seen := prevByID[job.ID]; !seen || from == job.Status {
			continue
		}
		if model.ValidTransition(from, job.Status) {
			continue
		}
		p.reportAnomaly(job.ID, from, job.Status, "illegal job status transition observed")
	}
}

func (p *Poller) reportAnomaly(jobID string, from, to model.JobStatus, message string) {
	p.mu.Lock()
	p.anomalies++
	fn := p.onAnomaly
	p.mu.Unlock()

	p.logger.Error(message, "job_id", jobID, "from", from, "to", to)
	if fn != nil {
		fn(jobID, from, to)
	}
}

// Stale reports whether the job snapshot has outlived the stale tolerance.
func (p *Poller) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Sub(p.lastSuccess) > p.staleTolerance
}

// LastError returns the most recent fetch failure, or nil after a success.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Anomalies returns the count of illegal transitions observed so far.
func (p *Poller) Anomalies() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anomalies
}
