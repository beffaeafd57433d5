// Package model defines the shared data types for the Obsidian AI agent.
package model

// JobStatus tracks the lifecycle of a single ingestion job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Statuses lists every job status in display order.
var Statuses = []JobStatus{
	JobStatusQueued,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

// Known reports whether s is a member of the closed status set.
func (s JobStatus) Known() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition may leave s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// ValidTransition enforces the allowed job state machine edges.
// Retry is the only path out of failed; completed and cancelled are terminal.
func ValidTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusQueued:
		return to == JobStatusProcessing || to == JobStatusCancelled
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed || to == JobStatusCancelled
	case JobStatusFailed:
		return to == JobStatusQueued
	case JobStatusCompleted, JobStatusCancelled:
		return false
	default:
		return false
	}
}

// Job is one unit of ingestion work. Timestamps are unix milliseconds.
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     JobStatus `json:"status"`
	CreatedAt  int64     `json:"created_at"`
	UpdatedAt  int64     `json:"updated_at"`
	AssetCount int64     `json:"asset_count"`
}

// JobAsset is a single input file attached to a job. Ownership is by job ID.
type JobAsset struct {
	ID           int64  `json:"id"`
	JobID        string `json:"job_id"`
	OriginalPath string `json:"original_path"`
	StoragePath  string `json:"storage_path"`
	MediaType    string `json:"media_type"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	ContentHash  string `json:"content_hash"`
}

// JobDetails pairs a job with its attached assets.
type JobDetails struct {
	Job    Job        `json:"job"`
	Assets []JobAsset `json:"assets"`
}
