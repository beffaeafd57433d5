// Package ingest prepares capture batches: media classification, job
// titling, asset description, and the generated note markdown.
package ingest

import (
	"fmt"
	"strings"
)

// InferMediaType classifies a file by extension into audio, video, image, or
// unknown.
func InferMediaType(filePath string) string {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".mp3"),
		strings.HasSuffix(lower, ".wav"),
		strings.HasSuffix(lower, ".m4a"):
		return "audio"
	case strings.HasSuffix(lower, ".mp4"):
		return "video"
	case strings.HasSuffix(lower, ".jpg"),
		strings.HasSuffix(lower, ".jpeg"),
		strings.HasSuffix(lower, ".png"),
		strings.HasSuffix(lower, ".heif"):
		return "image"
	default:
		return "unknown"
	}
}

// BuildJobTitle returns the trimmed user title, or the default batch title
// when none was given.
func BuildJobTitle(optionalTitle string, fileCount int) string {
	if trimmed := strings.TrimSpace(optionalTitle); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("Capture batch (%d files)", fileCount)
}
