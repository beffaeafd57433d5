package model

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"queued to processing", JobStatusQueued, JobStatusProcessing, true},
		{"queued to cancelled", JobStatusQueued, JobStatusCancelled, true},
		{"processing to completed", JobStatusProcessing, JobStatusCompleted, true},
		{"processing to failed", JobStatusProcessing, JobStatusFailed, true},
		{"processing to cancelled", JobStatusProcessing, JobStatusCancelled, true},
		{"failed to queued via retry", JobStatusFailed, JobStatusQueued, true},
		{"queued skips to completed", JobStatusQueued, JobStatusCompleted, false},
		{"queued to failed", JobStatusQueued, JobStatusFailed, false},
		{"completed is terminal", JobStatusCompleted, JobStatusQueued, false},
		{"cancelled is terminal", JobStatusCancelled, JobStatusProcessing, false},
		{"failed cannot restart processing", JobStatusFailed, JobStatusProcessing, false},
		{"unknown source status", JobStatus("bogus"), JobStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("ValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range Statuses {
		want := s == JobStatusCompleted || s == JobStatusCancelled
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestWriteModeValid(t *testing.T) {
	for _, m := range []WriteMode{WriteModeCLIOnly, WriteModeFilesystemOnly, WriteModeCLIFallback} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if WriteMode("sftp").Valid() {
		t.Error("unknown write mode should be invalid")
	}
}
