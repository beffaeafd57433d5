// Package control implements the job/settings synchronization layer: the
// component that reconciles daemon-authoritative state (job lifecycle,
// credential status, persisted settings) with locally-held surface state
// under polling, optimistic mutation, and partial-failure conditions.
package control

import (
	"context"
	"errors"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// Precondition violations. These are rejected before any gateway call.
var (
	// ErrNoFiles is returned by Enqueue when no file paths were provided.
	ErrNoFiles = errors.New("no files selected")

	// ErrNoSelection is returned by Publish when no job is active.
	ErrNoSelection = errors.New("no job selected")

	// ErrEmptyCredential is returned by SaveCredential for blank input.
	ErrEmptyCredential = errors.New("credential value is empty")
)

// Gateway is the command boundary consumed by the sync layer. *gateway.Client
// implements it; tests substitute a spy.
type Gateway interface {
	EnqueueIngestion(ctx context.Context, req gateway.EnqueueIngestionRequest) (gateway.EnqueueIngestionResponse, error)
	ListJobs(ctx context.Context) ([]model.Job, error)
	GetJob(ctx context.Context, jobID string) (*model.JobDetails, error)
	RetryJob(ctx context.Context, jobID string) (gateway.UpdateJobResponse, error)
	CancelJob(ctx context.Context, jobID string) (gateway.UpdateJobResponse, error)
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, payload model.Settings) (model.Settings, error)
	GetCredentialStatus(ctx context.Context) (model.CredentialStatus, error)
	SaveCredential(ctx context.Context, value string) error
	ClearCredential(ctx context.Context) error
	PreviewNote(ctx context.Context, jobID string) (gateway.PreviewNoteResponse, error)
	PublishNote(ctx context.Context, jobID string) (gateway.PublishNoteResponse, error)
}
