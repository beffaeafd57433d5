package gateway

import (
	"context"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// EnqueueIngestionRequest is the input for enqueue_ingestion.
type EnqueueIngestionRequest struct {
	FilePaths []string `json:"file_paths"`
	NoteTitle string   `json:"note_title,omitempty"`
}

// EnqueueIngestionResponse carries the ID of the newly created job.
type EnqueueIngestionResponse struct {
	JobID string `json:"job_id"`
}

// UpdateJobResponse reports whether a retry/cancel request took effect.
type UpdateJobResponse struct {
	OK bool `json:"ok"`
}

// SaveCredentialRequest is the input for save_credential.
type SaveCredentialRequest struct {
	Value string `json:"value"`
}

// JobIDRequest addresses a single job by ID.
type JobIDRequest struct {
	JobID string `json:"job_id"`
}

// PreviewNoteResponse carries the generated markdown for one job.
type PreviewNoteResponse struct {
	Markdown string `json:"markdown"`
}

// PublishNoteResponse reports where and how a note was written.
type PublishNoteResponse struct {
	NotePath string `json:"note_path"`
	Method   string `json:"method"`
}

// EnqueueIngestion creates a new ingestion job from the given file paths.
// The daemon rejects an empty path list; callers are expected to prevent
// the call in that case.
func (c *Client) EnqueueIngestion(ctx context.Context, req EnqueueIngestionRequest) (EnqueueIngestionResponse, error) {
	var resp EnqueueIngestionResponse
	err := c.invoke(ctx, OpEnqueueIngestion, req, &resp)
	return resp, err
}

// ListJobs fetches the full job list. Ordering is not part of the contract.
func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := c.invoke(ctx, OpListJobs, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches one job and its assets, or nil if the job is unknown.
func (c *Client) GetJob(ctx context.Context, jobID string) (*model.JobDetails, error) {
	var details *model.JobDetails
	if err := c.invoke(ctx, OpGetJob, JobIDRequest{JobID: jobID}, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// RetryJob requests that a failed job be re-queued.
func (c *Client) RetryJob(ctx context.Context, jobID string) (UpdateJobResponse, error) {
	var resp UpdateJobResponse
	err := c.invoke(ctx, OpRetryJob, JobIDRequest{JobID: jobID}, &resp)
	return resp, err
}

// CancelJob requests cancellation of a queued or processing job.
func (c *Client) CancelJob(ctx context.Context, jobID string) (UpdateJobResponse, error) {
	var resp UpdateJobResponse
	err := c.invoke(ctx, OpCancelJob, JobIDRequest{JobID: jobID}, &resp)
	return resp, err
}

// GetSettings fetches the authoritative settings snapshot.
func (c *Client) GetSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := c.invoke(ctx, OpGetSettings, nil, &settings)
	return settings, err
}

// SaveSettings persists settings and returns the stored, possibly-normalized
// snapshot.
func (c *Client) SaveSettings(ctx context.Context, payload model.Settings) (model.Settings, error) {
	var settings model.Settings
	err := c.invoke(ctx, OpSaveSettings, payload, &settings)
	return settings, err
}

// GetCredentialStatus fetches the derived credential status.
func (c *Client) GetCredentialStatus(ctx context.Context) (model.CredentialStatus, error) {
	var status model.CredentialStatus
	err := c.invoke(ctx, OpGetCredentialStatus, nil, &status)
	return status, err
}

// SaveCredential stores the API key. The daemon rejects an empty value.
func (c *Client) SaveCredential(ctx context.Context, value string) error {
	return c.invoke(ctx, OpSaveCredential, SaveCredentialRequest{Value: value}, nil)
}

// ClearCredential removes the stored API key.
func (c *Client) ClearCredential(ctx context.Context) error {
	return c.invoke(ctx, OpClearCredential, nil, nil)
}

// PreviewNote fetches the generated note markdown for one job.
func (c *Client) PreviewNote(ctx context.Context, jobID string) (PreviewNoteResponse, error) {
	var resp PreviewNoteResponse
	err := c.invoke(ctx, OpPreviewNote, JobIDRequest{JobID: jobID}, &resp)
	return resp, err
}

// PublishNote writes the generated note into the vault.
func (c *Client) PublishNote(ctx context.Context, jobID string) (PublishNoteResponse, error) {
	var resp PublishNoteResponse
	err := c.invoke(ctx, OpPublishNote, JobIDRequest{JobID: jobID}, &resp)
	return resp, err
}
