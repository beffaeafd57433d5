package control

import (
	"sync"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// PreviewPlaceholder is shown when no job is selected.
const PreviewPlaceholder = "Select a job to preview its generated note."

// Selection tracks which job is active for preview/publish. It defaults to
// the first entry the first time the job list becomes non-empty and never
// overrides a selection made afterwards.
type Selection struct {
	mu        sync.Mutex
	active    string
	defaulted bool
	onChange  func(jobID string)
}

// NewSelection creates an empty selection. onChange fires whenever the
// active job changes (preview refetch is driven from it); it may be nil.
func NewSelection(onChange func(jobID string)) *Selection {
	return &Selection{onChange: onChange}
}

// ObserveJobs applies the default-selection rule against a fresh snapshot.
func (s *Selection) ObserveJobs(jobs []model.Job) {
	s.mu.Lock()
	if s.defaulted || s.active != "" || len(jobs) == 0 {
		s.mu.Unlock()
		return
	}
	s.active = jobs[0].ID
	s.defaulted = true
	fire := s.onChange
	id := s.active
	s.mu.Unlock()

	if fire != nil {
		fire(id)
	}
}

// Select makes jobID the active selection.
func (s *Selection) Select(jobID string) {
	s.mu.Lock()
	if s.active == jobID {
		s.mu.Unlock()
		return
	}
	s.active = jobID
	s.defaulted = true
	fire := s.onChange
	s.mu.Unlock()

	if fire != nil {
		fire(jobID)
	}
}

// Active returns the selected job ID, if any.
func (s *Selection) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}
