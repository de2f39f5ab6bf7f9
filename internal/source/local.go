package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
	"github.com/radhakrish-venkat/desktop-search/internal/extract"
)

// skipDirNames are tooling directories excluded from every walk.
var skipDirNames = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"venv":         {},
}

// Local walks a directory tree on the local filesystem. Hidden paths and
// common tooling directories are skipped by name.
type Local struct {
	root      string
	extractor extract.Extractor
	maxSize   int64
}

// NewLocal creates a local source rooted at root. maxSize of 0 uses
// extract.DefaultMaxFileSize.
func NewLocal(root string, extractor extract.Extractor, maxSize int64) (*Local, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodeInvalidPath, "cannot resolve root path", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodeInvalidPath, "cannot stat root path", err)
	}
	if !info.IsDir() {
		return nil, dserrors.New(dserrors.ErrCodeInvalidPath, "root path is not a directory", nil).
			WithDetail("path", absRoot)
	}
	if maxSize <= 0 {
		maxSize = extract.DefaultMaxFileSize
	}
	return &Local{root: absRoot, extractor: extractor, maxSize: maxSize}, nil
}

// Name implements Source.
func (l *Local) Name() string {
	return "local:" + l.root
}

// Prefix implements Source. Local document ids come from the build
// counter, so the namespace is empty.
func (l *Local) Prefix() string {
	return ""
}

// Root returns the absolute root directory being indexed.
func (l *Local) Root() string {
	return l.root
}

// List walks the tree and returns one Item per indexable file, including
// a content hash so change detection can catch same-size edits.
func (l *Local) List(ctx context.Context) ([]Item, error) {
	var items []Item

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()
		if d.IsDir() {
			if path != l.root && shouldSkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > l.maxSize {
			slog.Debug("skipping oversized file",
				slog.String("path", path),
				slog.Int64("size", info.Size()))
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			slog.Warn("failed to hash file, skipping",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}

		items = append(items, Item{
			Locator: path,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mime:    mime.TypeByExtension(filepath.Ext(name)),
			Hash:    hash,
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, dserrors.SourceUnavailable(l.Name(), err)
	}

	return items, nil
}

// Fetch implements Source by delegating to the extraction collaborator.
func (l *Local) Fetch(ctx context.Context, locator string) (string, error) {
	return l.extractor.Extract(ctx, locator)
}

// shouldSkipDir reports whether a directory name is hidden or a known
// tooling directory.
func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, skip := skipDirNames[name]
	return skip
}

// hashFile computes the SHA-256 hex digest of a file's content.
func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
