package control

import (
	"context"
	"sync"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// spyGateway is a scriptable in-memory gateway that records every call.
type spyGateway struct {
	mu    sync.Mutex
	calls []string

	jobs        []model.Job
	jobsErr     error
	listGate    chan struct{}
	settings    model.Settings
	settingsErr error
	saved       model.Settings
	saveErr     error
	credStatus  model.CredentialStatus
	credValue   string
	updateOK    bool
	updateErr   error
	enqueueResp gateway.EnqueueIngestionResponse
	enqueueErr  error
	enqueueReq  gateway.EnqueueIngestionRequest
	preview     string
	previewErr  error
	publishResp gateway.PublishNoteResponse
	publishErr  error
}

func newSpyGateway() *spyGateway {
	return &spyGateway{updateOK: true}
}

func (s *spyGateway) record(op string) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
}

// callCount returns how many times op was invoked.
func (s *spyGateway) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (s *spyGateway) setJobs(jobs []model.Job) {
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
}

func (s *spyGateway) EnqueueIngestion(_ context.Context, req gateway.EnqueueIngestionRequest) (gateway.EnqueueIngestionResponse, error) {
	s.record(gateway.OpEnqueueIngestion)
	s.mu.Lock()
	s.enqueueReq = req
	s.mu.Unlock()
	return s.enqueueResp, s.enqueueErr
}

func (s *spyGateway) ListJobs(context.Context) ([]model.Job, error) {
	s.record(gateway.OpListJobs)
	s.mu.Lock()
	gate := s.listGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs, s.jobsErr
}

func (s *spyGateway) GetJob(_ context.Context, jobID string) (*model.JobDetails, error) {
	s.record(gateway.OpGetJob)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.ID == jobID {
			return &model.JobDetails{Job: job}, nil
		}
	}
	return nil, nil
}

func (s *spyGateway) RetryJob(_ context.Context, jobID string) (gateway.UpdateJobResponse, error) {
	s.record(gateway.OpRetryJob)
	return gateway.UpdateJobResponse{OK: s.updateOK}, s.updateErr
}

func (s *spyGateway) CancelJob(_ context.Context, jobID string) (gateway.UpdateJobResponse, error) {
	s.record(gateway.OpCancelJob)
	return gateway.UpdateJobResponse{OK: s.updateOK}, s.updateErr
}

func (s *spyGateway) GetSettings(context.Context) (model.Settings, error) {
	s.record(gateway.OpGetSettings)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.settingsErr
}

func (s *spyGateway) SaveSettings(_ context.Context, payload model.Settings) (model.Settings, error) {
	s.record(gateway.OpSaveSettings)
	s.mu.Lock()
	s.saved = payload
	s.mu.Unlock()
	if s.saveErr != nil {
		return model.Settings{}, s.saveErr
	}
	// Simulate server-side normalization when configured.
	result := payload
	if result.GeminiModel == "" {
		result.GeminiModel = "gemini-2.5-flash"
	}
	return result, nil
}

func (s *spyGateway) GetCredentialStatus(context.Context) (model.CredentialStatus, error) {
	s.record(gateway.OpGetCredentialStatus)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credStatus, nil
}

func (s *spyGateway) SaveCredential(_ context.Context, value string) error {
	s.record(gateway.OpSaveCredential)
	s.mu.Lock()
	s.credValue = value
	s.mu.Unlock()
	return nil
}

func (s *spyGateway) ClearCredential(context.Context) error {
	s.record(gateway.OpClearCredential)
	return nil
}

func (s *spyGateway) PreviewNote(_ context.Context, jobID string) (gateway.PreviewNoteResponse, error) {
	s.record(gateway.OpPreviewNote)
	if s.previewErr != nil {
		return gateway.PreviewNoteResponse{}, s.previewErr
	}
	return gateway.PreviewNoteResponse{Markdown: s.preview}, nil
}

func (s *spyGateway) PublishNote(_ context.Context, jobID string) (gateway.PublishNoteResponse, error) {
	s.record(gateway.OpPublishNote)
	return s.publishResp, s.publishErr
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	seen []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	r.seen = append(r.seen, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.seen))
	copy(out, r.seen)
	return out
}
