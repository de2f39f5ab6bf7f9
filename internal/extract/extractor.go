// Package extract defines the text-extraction collaborator. Binary-format
// extraction (PDF, office documents) plugs in behind the Extractor
// interface; the built-in implementation handles plain text files.
package extract

import (
	"bytes"
	"context"
	"os"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// DefaultMaxFileSize is the largest file Plain will read (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// binarySniffLen is how many leading bytes are checked for NUL.
const binarySniffLen = 512

// Extractor turns a document at a path into plain text. An empty or
// whitespace-only result and an error are both treated as "skip" by the
// caller, never as a pass failure.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Plain reads UTF-8 text files from the local filesystem. Binary content
// and oversized files are rejected.
type Plain struct {
	// MaxFileSize overrides DefaultMaxFileSize when positive.
	MaxFileSize int64
}

// Extract implements Extractor.
func (p *Plain) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxSize := p.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", dserrors.ExtractionFailed(path, err)
	}
	if info.Size() > maxSize {
		return "", dserrors.New(dserrors.ErrCodeFileTooLarge, "file exceeds extraction size limit", nil).
			WithDetail("path", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", dserrors.ExtractionFailed(path, err)
	}

	if isBinaryContent(content) {
		return "", dserrors.ExtractionFailed(path, nil).
			WithDetail("reason", "binary content")
	}

	return string(content), nil
}

// isBinaryContent checks the leading bytes for NUL, the same heuristic git
// uses to classify binary files.
func isBinaryContent(content []byte) bool {
	n := binarySniffLen
	if len(content) < n {
		n = len(content)
	}
	return bytes.IndexByte(content[:n], 0) != -1
}
