// Package store persists daemon state (jobs, assets, settings) in a single
// JSON file under the agent home directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// ErrJobExists is returned when inserting a job whose ID is already present.
var ErrJobExists = errors.New("job already exists")

// DefaultSettings are seeded on first run, matching a fresh install.
func DefaultSettings() model.Settings {
	return model.Settings{
		VaultPath:       "",
		ObsidianCLIPath: "obsidian",
		GeminiModel:     "gemini-2.5-flash",
		WriteMode:       model.WriteModeCLIFallback,
	}
}

// state is the on-disk document.
type state struct {
	Jobs        []model.Job      `json:"jobs"`
	Assets      []model.JobAsset `json:"assets"`
	Settings    model.Settings   `json:"settings"`
	NextAssetID int64            `json:"next_asset_id"`
}

// Store is a mutex-guarded JSON state file. Every mutation is written back
// atomically (temp file, then rename).
type Store struct {
	path string

	mu    sync.Mutex
	state state
	now   func() time.Time
}

// Open loads the state file at path, creating a default one when missing.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
		state: state{
			Settings:    DefaultSettings(),
			NextAssetID: 1,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	if s.state.NextAssetID < 1 {
		s.state.NextAssetID = 1
	}
	if !s.state.Settings.WriteMode.Valid() {
		s.state.Settings.WriteMode = model.WriteModeCLIFallback
	}
	return s, nil
}

// persist writes the current state under the lock held by the caller.
func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// InsertJobWithAssets stores a new job and its assets in one write.
func (s *Store) InsertJobWithAssets(job model.Job, assets []model.JobAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.Jobs {
		if existing.ID == job.ID {
			return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
		}
	}

	now := s.now().UnixMilli()
	if job.CreatedAt == 0 {
		job.CreatedAt = now
	}
	if job.UpdatedAt == 0 {
		job.UpdatedAt = job.CreatedAt
	}
	job.AssetCount = int64(len(assets))
	s.state.Jobs = append(s.state.Jobs, job)

	for _, asset := range assets {
		asset.ID = s.state.NextAssetID
		s.state.NextAssetID++
		asset.JobID = job.ID
		s.state.Assets = append(s.state.Assets, asset)
	}

	return s.persist()
}

// ListJobs returns all jobs, most recently updated first.
func (s *Store) ListJobs() []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := slices.Clone(s.state.Jobs)
	slices.SortStableFunc(jobs, func(a, b model.Job) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		default:
			return 0
		}
	})
	return jobs
}

// FindJobWithAssets returns the job and its assets, or nil when absent.
func (s *Store) FindJobWithAssets(jobID string) *model.JobDetails {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.state.Jobs {
		if job.ID != jobID {
			continue
		}
		details := &model.JobDetails{Job: job, Assets: []model.JobAsset{}}
		for _, asset := range s.state.Assets {
			if asset.JobID == jobID {
				details.Assets = append(details.Assets, asset)
			}
		}
		return details
	}
	return nil
}

// UpdateJobStatus moves a job to the given status and bumps its update
// timestamp. The state machine is enforced under the store lock so a
// concurrent writer cannot slip an illegal move between check and write.
// It reports false when the job does not exist or the move is illegal.
func (s *Store) UpdateJobStatus(jobID string, to model.JobStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Jobs {
		if s.state.Jobs[i].ID != jobID {
			continue
		}
		if !model.ValidTransition(s.state.Jobs[i].Status, to) {
			return false, nil
		}
		s.state.Jobs[i].Status = to
		s.state.Jobs[i].UpdatedAt = s.now().UnixMilli()
		return true, s.persist()
	}
	return false, nil
}

// GetSettings returns the persisted settings.
func (s *Store) GetSettings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// SaveSettings replaces the persisted settings and returns the stored value.
func (s *Store) SaveSettings(settings model.Settings) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.ObsidianCLIPath == "" {
		settings.ObsidianCLIPath = DefaultSettings().ObsidianCLIPath
	}
	if settings.GeminiModel == "" {
		settings.GeminiModel = DefaultSettings().GeminiModel
	}
	if !settings.WriteMode.Valid() {
		return model.Settings{}, fmt.Errorf("unsupported write mode: %q", settings.WriteMode)
	}

	s.state.Settings = settings
	if err := s.persist(); err != nil {
		return model.Settings{}, err
	}
	return s.state.Settings, nil
}
