package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
)

// DescribeAsset builds the asset record for one source file: media type and
// MIME type by extension, plus size and sha256 when the file is readable.
// Enqueueing must not depend on the file being present yet, so a missing or
// unreadable file yields a best-effort record and the error for the caller to
// log.
func DescribeAsset(path string) (model.JobAsset, error) {
	asset := model.JobAsset{
		OriginalPath: path,
		MediaType:    InferMediaType(path),
		MimeType:     mime.TypeByExtension(filepath.Ext(path)),
	}

	info, err := os.Stat(path)
	if err != nil {
		return asset, fmt.Errorf("stat asset %s: %w", path, err)
	}
	asset.SizeBytes = info.Size()

	hash, err := hashFile(path)
	if err != nil {
		return asset, fmt.Errorf("hash asset %s: %w", path, err)
	}
	asset.ContentHash = hash

	return asset, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
