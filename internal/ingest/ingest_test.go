package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

func TestInferMediaType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"voice.mp3", "audio"},
		{"RECORDING.WAV", "audio"},
		{"memo.m4a", "audio"},
		{"clip.mp4", "video"},
		{"photo.jpg", "image"},
		{"photo.JPEG", "image"},
		{"screen.png", "image"},
		{"shot.heif", "image"},
		{"notes.txt", "unknown"},
		{"archive.mp3.zip", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, InferMediaType(tt.path))
		})
	}
}

func TestBuildJobTitle(t *testing.T) {
	assert.Equal(t, "Morning standup", BuildJobTitle("  Morning standup  ", 2))
	assert.Equal(t, "Capture batch (3 files)", BuildJobTitle("", 3))
	assert.Equal(t, "Capture batch (1 files)", BuildJobTitle("   ", 1))
}

func TestDescribeAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio bytes"), 0o644))

	asset, err := DescribeAsset(path)
	require.NoError(t, err)
	assert.Equal(t, path, asset.OriginalPath)
	assert.Equal(t, "audio", asset.MediaType)
	assert.Equal(t, int64(16), asset.SizeBytes)
	assert.Len(t, asset.ContentHash, 64)
}

func TestDescribeAssetMissingFile(t *testing.T) {
	asset, err := DescribeAsset("/nowhere/clip.mp4")
	require.Error(t, err)

	// The record is still usable for enqueue bookkeeping.
	assert.Equal(t, "video", asset.MediaType)
	assert.Equal(t, "/nowhere/clip.mp4", asset.OriginalPath)
	assert.Zero(t, asset.SizeBytes)
}

func TestBuildNoteMarkdown(t *testing.T) {
	details := model.JobDetails{
		Job: model.Job{Title: "Morning standup"},
		Assets: []model.JobAsset{
			{OriginalPath: "/tmp/memo.mp3", MediaType: "audio"},
			{OriginalPath: "/tmp/board.jpg", MediaType: "image"},
		},
	}

	md := BuildNoteMarkdown(details, nil)

	assert.True(t, strings.HasPrefix(md, "---\n"), "note starts with frontmatter")
	assert.Contains(t, md, `title: "[AI Capture] Morning standup"`)
	assert.Contains(t, md, "tags: [ai-capture, obsidian-agent]")
	assert.Contains(t, md, "## Key Insights\n- Insights extraction scaffold is active.")
	assert.Contains(t, md, "## Source Files\n- /tmp/memo.mp3 (audio)\n- /tmp/board.jpg (image)\n")
}

func TestBuildNoteMarkdownWithGeneratedInsights(t *testing.T) {
	details := model.JobDetails{Job: model.Job{Title: "Batch"}}

	md := BuildNoteMarkdown(details, []string{"- First point", "Second point"})

	assert.Contains(t, md, "## Key Insights\n- First point\n- Second point\n")
	assert.NotContains(t, md, "scaffold")
}
