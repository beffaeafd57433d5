// Package service owns the daemon-side job lifecycle: enqueueing capture
// batches, advancing them through the status state machine, and producing
// note previews and vault publishes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iskisraell/obsidian-ai-agent/internal/gemini"
	"github.com/iskisraell/obsidian-ai-agent/internal/ingest"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/iskisraell/obsidian-ai-agent/internal/obsidian"
	"github.com/iskisraell/obsidian-ai-agent/internal/secrets"
	"github.com/iskisraell/obsidian-ai-agent/internal/store"
)

// ErrNoFiles is returned by Enqueue when the batch is empty.
var ErrNoFiles = errors.New("enqueue_ingestion requires at least one file path")

// ErrJobNotFound is returned by preview/publish for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// idleInterval is how often the worker re-checks the queue when no wakeup
// arrived.
const idleInterval = 2 * time.Second

// Publisher writes a rendered note into the vault.
type Publisher interface {
	Publish(settings model.Settings, title, markdown string) (obsidian.Result, error)
}

// Summarizer drafts the Key Insights section for a batch.
type Summarizer interface {
	GenerateJobSummary(ctx context.Context, apiKey, model string, sourceFiles []string) (string, error)
}

// Service is the job lifecycle owner behind the command server.
type Service struct {
	store      *store.Store
	keys       *secrets.Keystore
	publisher  Publisher
	summarizer Summarizer
	bus        *EventBus
	logger     *slog.Logger

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	insights map[string][]string

	wake chan struct{}
}

// New creates a service over the given persistence and integrations.
func New(st *store.Store, keys *secrets.Keystore, publisher Publisher, summarizer Summarizer, bus *EventBus, logger *slog.Logger) *Service {
	if bus == nil {
		bus = NewEventBus(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		keys:       keys,
		publisher:  publisher,
		summarizer: summarizer,
		bus:        bus,
		logger:     logger,
		cancels:    make(map[string]context.CancelFunc),
		insights:   make(map[string][]string),
		wake:       make(chan struct{}, 1),
	}
}

// Events returns the service event bus.
func (s *Service) Events() *EventBus {
	return s.bus
}

func (s *Service) emit(jobID string, status model.JobStatus, message string) {
	eventType := EventTypeStatus
	if status == model.JobStatusFailed {
		eventType = EventTypeError
	}
	s.bus.Publish(Event{
		JobID:   jobID,
		Type:    eventType,
		Status:  status,
		Message: message,
	})
}

func (s *Service) wakeWorker() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Enqueue creates a queued job for the given capture batch.
func (s *Service) Enqueue(filePaths []string, noteTitle string) (string, error) {
	if len(filePaths) == 0 {
		return "", ErrNoFiles
	}

	jobID := "job-" + uuid.New().String()[:8]
	title := ingest.BuildJobTitle(noteTitle, len(filePaths))

	assets := make([]model.JobAsset, 0, len(filePaths))
	for _, path := range filePaths {
		asset, err := ingest.DescribeAsset(path)
		if err != nil {
			s.logger.Warn("asset not readable at enqueue time", "job_id", jobID, "path", path, "error", err)
		}
		assets = append(assets, asset)
	}

	job := model.Job{
		ID:     jobID,
		Title:  title,
		Status: model.JobStatusQueued,
	}
	if err := s.store.InsertJobWithAssets(job, assets); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("job enqueued", "job_id", jobID, "title", title, "files", len(filePaths))
	s.emit(jobID, model.JobStatusQueued, "job enqueued")
	s.wakeWorker()
	return jobID, nil
}

// ListJobs returns all jobs, most recently updated first.
func (s *Service) ListJobs() []model.Job {
	return s.store.ListJobs()
}

// GetJob returns job details, or nil when the job does not exist.
func (s *Service) GetJob(jobID string) *model.JobDetails {
	return s.store.FindJobWithAssets(jobID)
}

// Retry re-queues a failed job. It reports false for unknown jobs and for
// states the state machine does not allow to re-queue.
func (s *Service) Retry(jobID string) (bool, error) {
	return s.transition(jobID, model.JobStatusQueued, "job re-queued for retry")
}

// Cancel stops a queued or processing job. A processing job also has its
// work context cancelled.
func (s *Service) Cancel(jobID string) (bool, error) {
	ok, err := s.transition(jobID, model.JobStatusCancelled, "job cancelled")
	if err != nil || !ok {
		return ok, err
	}

	s.mu.Lock()
	cancel := s.cancels[jobID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return true, nil
}

// transition applies one state-machine move and reports false when the move
// is illegal or the job is unknown.
func (s *Service) transition(jobID string, to model.JobStatus, message string) (bool, error) {
	details := s.store.FindJobWithAssets(jobID)
	if details == nil {
		return false, nil
	}
	if !model.ValidTransition(details.Job.Status, to) {
		s.logger.Info("job transition rejected",
			"job_id", jobID, "from", details.Job.Status, "to", to)
		return false, nil
	}

	changed, err := s.store.UpdateJobStatus(jobID, to)
	if err != nil {
		return false, fmt.Errorf("update job status: %w", err)
	}
	if changed {
		s.emit(jobID, to, message)
		if to == model.JobStatusQueued {
			s.wakeWorker()
		}
	}
	return changed, nil
}

// GetSettings returns the persisted settings.
func (s *Service) GetSettings() model.Settings {
	return s.store.GetSettings()
}

// SaveSettings persists the payload and returns the stored snapshot.
func (s *Service) SaveSettings(payload model.Settings) (model.Settings, error) {
	return s.store.SaveSettings(payload)
}

// CredentialStatus reports where the Gemini key comes from.
func (s *Service) CredentialStatus() (model.CredentialStatus, error) {
	return s.keys.Status()
}

// SaveCredential stores the Gemini API key.
func (s *Service) SaveCredential(value string) error {
	return s.keys.Save(value)
}

// ClearCredential removes the stored Gemini API key.
func (s *Service) ClearCredential() error {
	return s.keys.Clear()
}

func (s *Service) insightsFor(jobID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insights[jobID]
}

// PreviewNote renders the note markdown for a job without writing anything.
func (s *Service) PreviewNote(jobID string) (string, error) {
	details := s.store.FindJobWithAssets(jobID)
	if details == nil {
		return "", ErrJobNotFound
	}
	return ingest.BuildNoteMarkdown(*details, s.insightsFor(jobID)), nil
}

// PublishNote writes the job's note into the vault.
func (s *Service) PublishNote(jobID string) (obsidian.Result, error) {
	details := s.store.FindJobWithAssets(jobID)
	if details == nil {
		return obsidian.Result{}, ErrJobNotFound
	}

	markdown := ingest.BuildNoteMarkdown(*details, s.insightsFor(jobID))
	result, err := s.publisher.Publish(s.store.GetSettings(), details.Job.Title, markdown)
	if err != nil {
		return obsidian.Result{}, fmt.Errorf("publish note: %w", err)
	}

	s.logger.Info("note published", "job_id", jobID, "path", result.NotePath, "method", result.Method)
	return result, nil
}

// Run drives the worker loop until ctx is cancelled. Queued jobs are picked
// up oldest-first, one at a time.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("job worker started")
	ticker := time.NewTicker(idleInterval)
	defer ticker.Stop()

	for {
		s.drainQueue(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("job worker stopped")
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

func (s *Service) drainQueue(ctx context.Context) {
	for ctx.Err() == nil {
		job, ok := s.nextQueued()
		if !ok {
			return
		}
		s.process(ctx, job)
	}
}

// nextQueued returns the oldest queued job.
func (s *Service) nextQueued() (model.Job, bool) {
	jobs := s.store.ListJobs()
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Status == model.JobStatusQueued {
			return jobs[i], true
		}
	}
	return model.Job{}, false
}

// process advances one job from queued to a terminal outcome.
func (s *Service) process(ctx context.Context, job model.Job) {
	changed, err := s.store.UpdateJobStatus(job.ID, model.JobStatusProcessing)
	if err != nil {
		s.logger.Error("failed to mark job processing", "job_id", job.ID, "error", err)
		return
	}
	if !changed {
		return
	}
	s.emit(job.ID, model.JobStatusProcessing, "job processing")

	jobCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	err = s.runPipeline(jobCtx, job.ID)

	s.mu.Lock()
	delete(s.cancels, job.ID)
	s.mu.Unlock()
	cancel()

	// A cancel may land at any point while the pipeline runs. The store
	// rejects moves out of terminal states, so the outcome write below is
	// the single authoritative decision.
	if err != nil {
		s.logger.Error("job failed", "job_id", job.ID, "error", err)
		changed, updateErr := s.store.UpdateJobStatus(job.ID, model.JobStatusFailed)
		if updateErr != nil {
			s.logger.Error("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			return
		}
		if changed {
			s.emit(job.ID, model.JobStatusFailed, err.Error())
		}
		return
	}

	changed, updateErr := s.store.UpdateJobStatus(job.ID, model.JobStatusCompleted)
	if updateErr != nil {
		s.logger.Error("failed to mark job completed", "job_id", job.ID, "error", updateErr)
		return
	}
	if !changed {
		return
	}
	s.logger.Info("job completed", "job_id", job.ID)
	s.emit(job.ID, model.JobStatusCompleted, "job completed")
}

// runPipeline does the actual ingestion work: verify the batch's source
// files and draft the Key Insights section when a credential is available.
func (s *Service) runPipeline(ctx context.Context, jobID string) error {
	details := s.store.FindJobWithAssets(jobID)
	if details == nil {
		return ErrJobNotFound
	}

	paths := make([]string, 0, len(details.Assets))
	for _, asset := range details.Assets {
		if _, err := os.Stat(asset.OriginalPath); err != nil {
			return fmt.Errorf("source file missing: %s", asset.OriginalPath)
		}
		paths = append(paths, asset.OriginalPath)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.generateInsights(ctx, jobID, paths)
	return nil
}

// generateInsights is best-effort: without a key, or when Gemini fails, the
// note keeps its scaffold bullets.
func (s *Service) generateInsights(ctx context.Context, jobID string, paths []string) {
	if s.summarizer == nil {
		return
	}

	apiKey, err := s.keys.Resolve()
	if err != nil || apiKey == "" {
		return
	}

	summary, err := s.summarizer.GenerateJobSummary(ctx, apiKey, s.store.GetSettings().GeminiModel, paths)
	if err != nil {
		s.logger.Warn("insight generation failed, keeping scaffold", "job_id", jobID, "error", err)
		return
	}

	lines := gemini.SummaryLines(summary)
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	s.insights[jobID] = lines
	s.mu.Unlock()
}
