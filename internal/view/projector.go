// Package view derives presentation-ready aggregates from job and settings
// snapshots. Everything here is pure: inputs are never mutated and the same
// snapshots always project to the same output.
package view

import (
	"fmt"
	"slices"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// timelineSize is how many recently updated jobs the timeline shows.
const timelineSize = 3

// QueueRow is one display row of the ingestion queue.
type QueueRow struct {
	JobID  string
	Label  string
	Detail string
	Status model.JobStatus
}

// TimelineEntry is one recent-activity line.
type TimelineEntry struct {
	At          time.Time
	Title       string
	Description string
}

// Projection is the full derived view state.
type Projection struct {
	Rows     []QueueRow
	Tallies  map[model.JobStatus]int
	Total    int
	Timeline []TimelineEntry

	// Confidence is the placeholder gauge: min(jobs*10, 99).
	Confidence int

	// SettingsLines summarizes the authoritative snapshot, never the draft.
	SettingsLines []string
}

// Project recomputes the projection from the latest snapshots.
func Project(jobs []model.Job, settings model.Settings) Projection {
	p := Projection{
		Rows:    make([]QueueRow, 0, len(jobs)),
		Tallies: make(map[model.JobStatus]int),
		Total:   len(jobs),
	}

	for _, job := range jobs {
		p.Rows = append(p.Rows, QueueRow{
			JobID:  job.ID,
			Label:  job.Title,
			Detail: assetDetail(job.AssetCount),
			Status: job.Status,
		})
		p.Tallies[job.Status]++
	}

	p.Timeline = projectTimeline(jobs)
	p.Confidence = Confidence(len(jobs))
	p.SettingsLines = SettingsLines(settings)
	return p
}

// Confidence is a monotone placeholder heuristic over the job count, capped
// at 99. It is not a real confidence computation.
func Confidence(jobCount int) int {
	if jobCount < 0 {
		return 0
	}
	confidence := jobCount * 10
	if confidence > 99 {
		confidence = 99
	}
	return confidence
}

// projectTimeline returns the three most recently updated jobs, newest first.
func projectTimeline(jobs []model.Job) []TimelineEntry {
	sorted := slices.Clone(jobs)
	slices.SortStableFunc(sorted, func(a, b model.Job) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		default:
			return 0
		}
	})

	if len(sorted) > timelineSize {
		sorted = sorted[:timelineSize]
	}

	entries := make([]TimelineEntry, 0, len(sorted))
	for _, job := range sorted {
		entries = append(entries, TimelineEntry{
			At:          time.UnixMilli(job.UpdatedAt),
			Title:       job.Title,
			Description: fmt.Sprintf("Status: %s", job.Status),
		})
	}
	return entries
}

func assetDetail(count int64) string {
	if count == 1 {
		return "1 asset"
	}
	return fmt.Sprintf("%d assets", count)
}

// SettingsLines summarizes a settings snapshot for display.
func SettingsLines(s model.Settings) []string {
	vault := s.VaultPath
	if vault == "" {
		vault = "(auto-detect)"
	}
	cli := s.ObsidianCLIPath
	if cli == "" {
		cli = "obsidian"
	}
	return []string{
		"Vault: " + vault,
		"Obsidian CLI: " + cli,
		"Model: " + s.GeminiModel,
		"Write mode: " + string(s.WriteMode),
	}
}

// StatusGlyph maps each job status to its queue marker. The switch is
// exhaustive over the closed status set so a new status is a compile-visible
// change here, not a silently missing map entry.
func StatusGlyph(s model.JobStatus) string {
	switch s {
	case model.JobStatusQueued:
		return "…"
	case model.JobStatusProcessing:
		return "▶"
	case model.JobStatusCompleted:
		return "✓"
	case model.JobStatusFailed:
		return "✗"
	case model.JobStatusCancelled:
		return "⊘"
	default:
		return "?"
	}
}
