package control

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// MutationKind identifies one user-triggered state change.
type MutationKind string

const (
	MutationEnqueue         MutationKind = "enqueue"
	MutationSaveSettings    MutationKind = "save_settings"
	MutationSaveCredential  MutationKind = "save_credential"
	MutationClearCredential MutationKind = "clear_credential"
	MutationRetry           MutationKind = "retry"
	MutationCancel          MutationKind = "cancel"
	MutationPublish         MutationKind = "publish"
)

// MutationStatus is the per-kind lifecycle state, tracked independently from
// the data cache so the surface can render pending actions without timing
// races.
type MutationStatus string

const (
	StatusIdle     MutationStatus = "idle"
	StatusInFlight MutationStatus = "in_flight"
	StatusSuccess  MutationStatus = "success"
	StatusFailure  MutationStatus = "failure"
)

// Coordinator executes mutations as single-shot operations: precondition
// check, gateway call, then on success the minimal cache invalidation plus
// any immediate local effect. On failure the prior cached state is left
// untouched. Nothing retries automatically.
type Coordinator struct {
	gw       Gateway
	cache    *Cache
	drafts   *DraftManager
	sel      *Selection
	notifier Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	status map[MutationKind]MutationStatus
}

// NewCoordinator wires a coordinator over the shared sync-layer parts.
func NewCoordinator(gw Gateway, cache *Cache, drafts *DraftManager, sel *Selection, notifier Notifier, logger *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		gw:       gw,
		cache:    cache,
		drafts:   drafts,
		sel:      sel,
		notifier: notifier,
		logger:   logger,
		status:   make(map[MutationKind]MutationStatus),
	}
}

// Status returns the lifecycle state for one mutation kind.
func (c *Coordinator) Status(kind MutationKind) MutationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.status[kind]; ok {
		return s
	}
	return StatusIdle
}

func (c *Coordinator) setStatus(kind MutationKind, s MutationStatus) {
	c.mu.Lock()
	c.status[kind] = s
	c.mu.Unlock()
}

// fail records a transport/gateway failure and surfaces it immediately.
func (c *Coordinator) fail(kind MutationKind, err error) {
	c.setStatus(kind, StatusFailure)
	c.logger.Warn("mutation failed", "kind", string(kind), "error", err)
	c.notifier.Notify(Notification{
		Kind:    kind,
		Level:   LevelFailure,
		Message: err.Error(),
	})
}

// succeed records success and emits the single success notification.
func (c *Coordinator) succeed(kind MutationKind, message string) {
	c.setStatus(kind, StatusSuccess)
	c.notifier.Notify(Notification{
		Kind:    kind,
		Level:   LevelSuccess,
		Message: message,
	})
}

// Enqueue creates an ingestion job from the given file paths. The call never
// reaches the gateway with an empty path list. On success the job list is
// invalidated and the new job becomes the active selection.
func (c *Coordinator) Enqueue(ctx context.Context, filePaths []string, noteTitle string) (string, error) {
	if len(filePaths) == 0 {
		return "", ErrNoFiles
	}

	c.setStatus(MutationEnqueue, StatusInFlight)
	resp, err := c.gw.EnqueueIngestion(ctx, gateway.EnqueueIngestionRequest{
		FilePaths: filePaths,
		NoteTitle: noteTitle,
	})
	if err != nil {
		c.fail(MutationEnqueue, err)
		return "", err
	}

	c.cache.Invalidate(ResourceJobs)
	if c.sel != nil {
		c.sel.Select(resp.JobID)
	}
	c.succeed(MutationEnqueue, fmt.Sprintf("Enqueued %d file(s) as job %s", len(filePaths), resp.JobID))
	return resp.JobID, nil
}

// SaveSettings transmits the trimmed draft and re-seeds it from the
// daemon-returned snapshot, which replaces the authoritative cache entry.
func (c *Coordinator) SaveSettings(ctx context.Context) (model.Settings, error) {
	payload := c.drafts.PrepareForSave()

	c.setStatus(MutationSaveSettings, StatusInFlight)
	saved, err := c.gw.SaveSettings(ctx, payload)
	if err != nil {
		c.fail(MutationSaveSettings, err)
		return model.Settings{}, err
	}

	c.cache.Put(ResourceSettings, saved)
	c.drafts.Seed(saved)
	c.succeed(MutationSaveSettings, "Settings saved")
	return saved, nil
}

// SaveCredential stores a non-empty, trimmed API key. The credential-status
// cache is invalidated on success; the input draft is cleared only once the
// refreshed status confirms the keychain took it.
func (c *Coordinator) SaveCredential(ctx context.Context, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ErrEmptyCredential
	}

	c.setStatus(MutationSaveCredential, StatusInFlight)
	if err := c.gw.SaveCredential(ctx, trimmed); err != nil {
		c.fail(MutationSaveCredential, err)
		return err
	}

	c.cache.Invalidate(ResourceCredentialStatus)
	c.succeed(MutationSaveCredential, "API key saved")
	return nil
}

// ClearCredential removes the stored API key.
func (c *Coordinator) ClearCredential(ctx context.Context) error {
	c.setStatus(MutationClearCredential, StatusInFlight)
	if err := c.gw.ClearCredential(ctx); err != nil {
		c.fail(MutationClearCredential, err)
		return err
	}

	c.cache.Invalidate(ResourceCredentialStatus)
	c.succeed(MutationClearCredential, "API key cleared")
	return nil
}

// Retry asks the daemon to re-queue a failed job. A declined request
// (ok=false) is a soft failure: no invalidation, no error, softer signal.
func (c *Coordinator) Retry(ctx context.Context, jobID string) error {
	return c.updateJob(ctx, MutationRetry, jobID, c.gw.RetryJob,
		"Job "+jobID+" re-queued", "Job "+jobID+" cannot be retried")
}

// Cancel asks the daemon to cancel a queued or processing job.
func (c *Coordinator) Cancel(ctx context.Context, jobID string) error {
	return c.updateJob(ctx, MutationCancel, jobID, c.gw.CancelJob,
		"Job "+jobID+" cancelled", "Job "+jobID+" cannot be cancelled")
}

func (c *Coordinator) updateJob(
	ctx context.Context,
	kind MutationKind,
	jobID string,
	call func(context.Context, string) (gateway.UpdateJobResponse, error),
	okMsg, declinedMsg string,
) error {
	c.setStatus(kind, StatusInFlight)
	resp, err := call(ctx, jobID)
	if err != nil {
		c.fail(kind, err)
		return err
	}

	if !resp.OK {
		c.setStatus(kind, StatusFailure)
		c.notifier.Notify(Notification{
			Kind:    kind,
			Level:   LevelSoft,
			Message: declinedMsg,
		})
		return nil
	}

	c.cache.Invalidate(ResourceJobs)
	c.succeed(kind, okMsg)
	return nil
}

// Publish writes the active job's note into the vault. The call never
// reaches the gateway without an active selection. The selection itself is
// not changed.
func (c *Coordinator) Publish(ctx context.Context) (gateway.PublishNoteResponse, error) {
	jobID, ok := c.sel.Active()
	if !ok {
		return gateway.PublishNoteResponse{}, ErrNoSelection
	}

	c.setStatus(MutationPublish, StatusInFlight)
	resp, err := c.gw.PublishNote(ctx, jobID)
	if err != nil {
		c.fail(MutationPublish, err)
		return gateway.PublishNoteResponse{}, err
	}

	c.cache.Invalidate(ResourceJobs)
	c.succeed(MutationPublish, fmt.Sprintf("Note published to %s (%s)", resp.NotePath, resp.Method))
	return resp, nil
}
