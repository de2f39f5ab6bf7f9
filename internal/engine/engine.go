// Package engine orchestrates indexing passes and query serving: it
// decides between full and incremental builds, drives extraction through
// the sources, merges deltas, and persists snapshot and fingerprints in
// a crash-safe order.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/radhakrish-venkat/desktop-search/internal/detect"
	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
	"github.com/radhakrish-venkat/desktop-search/internal/fingerprint"
	"github.com/radhakrish-venkat/desktop-search/internal/index"
	"github.com/radhakrish-venkat/desktop-search/internal/search"
	"github.com/radhakrish-venkat/desktop-search/internal/source"
	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

// Progress reports per-document build progress.
type Progress func(processed, total int, locator string)

// Options configures an Engine.
type Options struct {
	SnapshotPath    string
	FingerprintPath string
	LockPath        string

	// Workers bounds concurrent extraction. Zero means 4.
	Workers int
	// CacheSize is passed to the ranker's token cache.
	CacheSize int
	// Tokenizer defaults to token.Default().
	Tokenizer *token.Tokenizer
	// Progress is invoked per processed document during builds.
	Progress Progress
}

// Engine owns the loaded snapshot and its collaborators. Build and
// Search are safe for concurrent use; builds additionally take a
// cross-process file lock so two processes never write one artifact.
type Engine struct {
	mu   sync.RWMutex
	snap *index.Snapshot

	opts   Options
	tok    *token.Tokenizer
	fps    *fingerprint.Store
	ranker *search.Ranker
}

// New creates an engine. The fingerprint store is opened eagerly; the
// snapshot is loaded lazily on first use.
func New(opts Options) (*Engine, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = token.Default()
	}

	if err := os.MkdirAll(filepath.Dir(opts.SnapshotPath), 0o755); err != nil {
		return nil, dserrors.PersistFailed("failed to create index directory", err)
	}

	fps, err := fingerprint.Open(opts.FingerprintPath)
	if err != nil {
		return nil, err
	}

	ranker, err := search.NewRanker(opts.Tokenizer, opts.CacheSize)
	if err != nil {
		fps.Close()
		return nil, err
	}

	return &Engine{
		opts:   opts,
		tok:    opts.Tokenizer,
		fps:    fps,
		ranker: ranker,
	}, nil
}

// Close releases the fingerprint store.
func (e *Engine) Close() error {
	return e.fps.Close()
}

// Build runs one indexing pass over the given sources. When no usable
// snapshot exists (first run, forced, or the artifact fails to load) it
// performs a full build; otherwise it indexes only the changed set and
// merges the delta. Returns the stats of the resulting snapshot.
func (e *Engine) Build(ctx context.Context, sources []source.Source, forceFull bool) (*index.Stats, error) {
	lock := flock.New(e.opts.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, dserrors.PersistFailed("failed to acquire index lock", err)
	}
	if !locked {
		return nil, dserrors.New(dserrors.ErrCodeIndexFailed, "another indexing pass holds the lock", nil).
			WithDetail("lock", e.opts.LockPath).
			WithSuggestion("wait for the running pass to finish")
	}
	defer lock.Unlock()

	base, full := e.loadBase(forceFull)

	current := base
	var pass index.Stats
	changedAnything := full

	// Fingerprints to persist per source, staged until the snapshot is
	// safely on disk.
	staged := make(map[string][]fingerprint.Fingerprint)

	for _, src := range sources {
		prev := map[string]fingerprint.Fingerprint{}
		if !full {
			prev, err = e.fps.BySource(ctx, src.Name())
			if err != nil {
				return nil, err
			}
		}

		items, err := src.List(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if full {
				// The rebuilt snapshot will not contain this source's
				// documents. Its old fingerprints must go with them,
				// or the next healthy pass would classify everything
				// as unchanged and never re-index it.
				staged[src.Name()] = nil
				slog.Warn("source unavailable during full build, invalidating its fingerprints",
					slog.String("source", src.Name()),
					slog.String("error", err.Error()))
				continue
			}
			// Keep the source's existing documents and fingerprints; a
			// flaky listing must never look like a mass deletion.
			slog.Warn("source unavailable, keeping indexed documents",
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
			continue
		}

		cs := detect.Detect(items, prev)
		if cs.Empty() && !full {
			staged[src.Name()] = itemFingerprints(src.Name(), items, nil)
			continue
		}
		changedAnything = true

		delta, skipped, err := e.indexChanged(ctx, src, cs, current)
		if err != nil {
			return nil, err
		}

		merged, err := index.Merge(current, delta)
		if err != nil {
			return nil, err
		}
		removed := index.ApplyDeletions(merged, cs.Deleted)
		current = merged

		pass.NewFiles += len(cs.New)
		pass.ModifiedFiles += len(cs.Modified)
		pass.DeletedFiles += removed
		pass.SkippedFiles += delta.Stats.SkippedFiles

		staged[src.Name()] = itemFingerprints(src.Name(), items, skipped)
	}

	if !changedAnything {
		slog.Info("no changes detected, snapshot untouched")
		stats := current.Stats
		stats.NewFiles, stats.ModifiedFiles, stats.DeletedFiles, stats.SkippedFiles = 0, 0, 0, 0
		e.install(current)
		return &stats, nil
	}

	current.Stats.NewFiles = pass.NewFiles
	current.Stats.ModifiedFiles = pass.ModifiedFiles
	current.Stats.DeletedFiles = pass.DeletedFiles
	current.Stats.SkippedFiles = pass.SkippedFiles
	current.RecomputeStats()

	// Snapshot first, fingerprints second: if the process dies between
	// the two, the next pass re-detects and re-indexes, which is safe.
	// The reverse order could mask changes forever.
	if err := index.Save(current, e.opts.SnapshotPath); err != nil {
		return nil, err
	}
	for name, fps := range staged {
		if err := e.fps.ReplaceSource(ctx, name, fps); err != nil {
			return nil, err
		}
	}

	e.install(current)

	slog.Info("indexing pass complete",
		slog.Int("total", current.Stats.TotalFiles),
		slog.Int("new", current.Stats.NewFiles),
		slog.Int("modified", current.Stats.ModifiedFiles),
		slog.Int("deleted", current.Stats.DeletedFiles),
		slog.Int("skipped", current.Stats.SkippedFiles),
		slog.Bool("full", full))

	stats := current.Stats
	return &stats, nil
}

// Search ranks the current snapshot against the query. The snapshot is
// loaded from disk on first use.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	snap, err := e.currentSnapshot()
	if err != nil {
		return nil, err
	}
	return e.ranker.Search(ctx, snap, query, limit)
}

// Stats returns the current snapshot's stats.
func (e *Engine) Stats() (*index.Stats, error) {
	snap, err := e.currentSnapshot()
	if err != nil {
		return nil, err
	}
	stats := snap.Stats
	return &stats, nil
}

// loadBase returns the snapshot to build on and whether this pass is a
// full build. Corrupt or malformed artifacts are discarded with a
// warning and trigger a full rebuild rather than aborting.
func (e *Engine) loadBase(forceFull bool) (*index.Snapshot, bool) {
	if forceFull {
		return index.NewSnapshot(), true
	}

	snap, err := index.Load(e.opts.SnapshotPath)
	if err == nil {
		return snap, false
	}

	switch dserrors.GetCode(err) {
	case dserrors.ErrCodeFileNotFound:
		slog.Info("no snapshot found, performing full build")
	case dserrors.ErrCodeCorruptIndex, dserrors.ErrCodeMalformedIndex:
		slog.Warn("snapshot unusable, rebuilding from scratch",
			slog.String("error", err.Error()))
	default:
		slog.Warn("failed to load snapshot, rebuilding from scratch",
			slog.String("error", err.Error()))
	}
	return index.NewSnapshot(), true
}

// indexChanged extracts and indexes the changed set for one source with
// bounded parallelism. Per-item failures count as skipped; they never
// abort the pass. Returns the delta snapshot and the set of locators
// skipped this pass.
func (e *Engine) indexChanged(ctx context.Context, src source.Source, cs detect.ChangeSet, base *index.Snapshot) (*index.Snapshot, map[string]struct{}, error) {
	// Seed the local id counter past the base snapshot so delta ids
	// never collide with live ones.
	builder := index.NewBuilderAt(e.tok, src.Name(), src.Prefix(), base.NextLocalID())

	var mu sync.Mutex
	skipped := make(map[string]struct{})

	var processed atomic.Int64
	total := cs.Total()
	report := func(locator string) {
		n := processed.Add(1)
		if e.opts.Progress != nil {
			e.opts.Progress(int(n), total, locator)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	work := make([]source.Item, 0, total)
	work = append(work, cs.New...)
	work = append(work, cs.Modified...)

	for _, item := range work {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			text, err := src.Fetch(gctx, item.Locator)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				builder.MarkSkipped(item.Locator, err)
				mu.Lock()
				skipped[item.Locator] = struct{}{}
				mu.Unlock()
				report(item.Locator)
				return nil
			}

			_, added := builder.Add(item.Locator, text, index.DocumentMeta{
				MimeType: item.Mime,
				Size:     item.Size,
				ModTime:  item.ModTime,
			})
			if !added {
				mu.Lock()
				skipped[item.Locator] = struct{}{}
				mu.Unlock()
			}
			report(item.Locator)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return builder.Snapshot(), skipped, nil
}

// install swaps in a new snapshot and drops the ranker's stale tokens.
func (e *Engine) install(snap *index.Snapshot) {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	e.ranker.Purge()
}

// currentSnapshot returns the in-memory snapshot, loading it from disk
// the first time.
func (e *Engine) currentSnapshot() (*index.Snapshot, error) {
	e.mu.RLock()
	snap := e.snap
	e.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	loaded, err := index.Load(e.opts.SnapshotPath)
	if err != nil {
		if dserrors.GetCode(err) == dserrors.ErrCodeFileNotFound {
			return nil, dserrors.New(dserrors.ErrCodeFileNotFound, "no index exists yet", err).
				WithSuggestion("run the index command first")
		}
		return nil, err
	}

	e.install(loaded)
	return loaded, nil
}

// itemFingerprints converts a listing into the fingerprints to persist,
// excluding locators skipped this pass so they are retried next time.
func itemFingerprints(sourceName string, items []source.Item, skipped map[string]struct{}) []fingerprint.Fingerprint {
	out := make([]fingerprint.Fingerprint, 0, len(items))
	for _, item := range items {
		if _, wasSkipped := skipped[item.Locator]; wasSkipped {
			continue
		}
		out = append(out, fingerprint.Fingerprint{
			Source:  sourceName,
			Locator: item.Locator,
			Size:    item.Size,
			ModTime: item.ModTime,
			Hash:    item.Hash,
		})
	}
	return out
}
