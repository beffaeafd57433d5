package ingest

import (
	"fmt"
	"strings"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// DefaultInsights is the Key Insights scaffold used when no generated
// summary is available for a job.
func DefaultInsights() []string {
	return []string{
		"Insights extraction scaffold is active.",
		"Gemini integration module is initialized.",
		"Obsidian write path is CLI-first with fallback.",
	}
}

// BuildNoteMarkdown renders the Obsidian note for a job: YAML frontmatter
// with the capture title and fixed tags, Key Insights bullets, and the
// source file list.
func BuildNoteMarkdown(details model.JobDetails, insights []string) string {
	if len(insights) == 0 {
		insights = DefaultInsights()
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"[AI Capture] %s\"\n", details.Job.Title)
	b.WriteString("tags: [ai-capture, obsidian-agent]\n")
	b.WriteString("---\n\n")

	b.WriteString("## Key Insights\n")
	for _, line := range insights {
		fmt.Fprintf(&b, "- %s\n", strings.TrimPrefix(strings.TrimSpace(line), "- "))
	}
	b.WriteString("\n## Source Files\n")
	for _, asset := range details.Assets {
		fmt.Fprintf(&b, "- %s (%s)\n", asset.OriginalPath, asset.MediaType)
	}
	return b.String()
}
