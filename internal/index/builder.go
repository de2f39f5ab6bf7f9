package index

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

// Builder accumulates documents into an in-memory snapshot. Adds are
// mutex-guarded because posting-list union is not safely parallel; callers
// may feed it from concurrent extraction workers.
type Builder struct {
	mu   sync.Mutex
	tok  *token.Tokenizer
	snap *Snapshot

	// idPrefix namespaces document ids for remote sources. When empty,
	// ids come from the local build counter.
	idPrefix string
	nextID   int
}

// NewBuilder creates a builder for a source. prefix is empty for local
// sources (counter-derived ids) and the source prefix for remote ones.
func NewBuilder(tok *token.Tokenizer, sourceDesc, prefix string) *Builder {
	return &Builder{
		tok:      tok,
		snap:     NewSnapshot(sourceDesc),
		idPrefix: prefix,
		nextID:   1,
	}
}

// NewBuilderAt creates a builder whose local id counter starts at nextID.
// Incremental passes seed this from the previous snapshot so delta ids
// never collide with live ones.
func NewBuilderAt(tok *token.Tokenizer, sourceDesc, prefix string, nextID int) *Builder {
	b := NewBuilder(tok, sourceDesc, prefix)
	if nextID > b.nextID {
		b.nextID = nextID
	}
	return b
}

// Add tokenizes text and records the document, returning its allocated id.
// Documents whose text is empty or whitespace are not recorded; Add returns
// ("", false) and counts them as skipped.
func (b *Builder) Add(locator, text string, meta DocumentMeta) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		b.snap.Stats.SkippedFiles++
		slog.Debug("skipping document with no extractable text", slog.String("locator", locator))
		return "", false
	}

	id := b.allocateID(locator)
	b.snap.Documents[id] = DocumentRecord{
		ID:      id,
		Locator: locator,
		Text:    text,
		Meta:    meta,
	}

	for _, term := range b.tok.Tokenize(text) {
		b.snap.Postings[term] = insertSorted(b.snap.Postings[term], id)
	}

	return id, true
}

// MarkSkipped counts an item that failed extraction or was otherwise not
// indexable. Per-item failures never abort a build.
func (b *Builder) MarkSkipped(locator string, reason error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snap.Stats.SkippedFiles++
	if reason != nil {
		slog.Warn("skipping document",
			slog.String("locator", locator),
			slog.String("error", reason.Error()))
	}
}

// Snapshot seals the builder and returns the snapshot with structural
// stats recomputed. The builder must not be used after sealing.
func (b *Builder) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snap.RecomputeStats()
	return b.snap
}

// allocateID assigns a document id. Remote ids are namespaced by the
// source prefix to avoid collisions on merge; local ids come from the
// build counter.
func (b *Builder) allocateID(locator string) string {
	if b.idPrefix != "" {
		return b.idPrefix + ":" + locator
	}
	id := fmt.Sprintf("%s%d", LocalIDPrefix, b.nextID)
	b.nextID++
	return id
}
