// Package index implements the inverted index: building, merging, and the
// snapshot codec that persists one integrity-tagged artifact per index.
package index

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SchemaVersion is the current snapshot schema version. Artifacts with a
// higher version are rejected as malformed rather than guessed at.
const SchemaVersion = 1

// LocalIDPrefix prefixes counter-derived document ids for local sources.
const LocalIDPrefix = "doc-"

// DocumentMeta carries lightweight metadata about an indexed document.
type DocumentMeta struct {
	MimeType string    `json:"mime_type,omitempty"`
	Size     int64     `json:"size,omitempty"`
	ModTime  time.Time `json:"mod_time,omitzero"`
}

// DocumentRecord is one entry in the document store. Its lifetime equals
// the snapshot's.
type DocumentRecord struct {
	ID      string       `json:"id"`
	Locator string       `json:"locator"`
	Text    string       `json:"text"`
	Meta    DocumentMeta `json:"meta"`
}

// Stats are aggregate counts for a snapshot. Total and unique-term counts
// are always recomputed from the structures; the per-pass counters are set
// by the orchestrator for the pass that produced the snapshot.
type Stats struct {
	TotalFiles    int `json:"total_files"`
	NewFiles      int `json:"new_files"`
	ModifiedFiles int `json:"modified_files"`
	DeletedFiles  int `json:"deleted_files"`
	SkippedFiles  int `json:"skipped_files"`
	UniqueTerms   int `json:"unique_terms"`
}

// Snapshot is one complete, internally consistent state of the index and
// document store. It is the unit of persistence.
type Snapshot struct {
	SchemaVersion int                       `json:"schema_version"`
	Sources       []string                  `json:"sources"`
	Postings      map[string][]string       `json:"postings"`
	Documents     map[string]DocumentRecord `json:"documents"`
	Stats         Stats                     `json:"stats"`
}

// NewSnapshot returns an empty snapshot for the given source descriptors.
func NewSnapshot(sources ...string) *Snapshot {
	return &Snapshot{
		SchemaVersion: SchemaVersion,
		Sources:       sources,
		Postings:      make(map[string][]string),
		Documents:     make(map[string]DocumentRecord),
	}
}

// DocumentByLocator returns the document record for a locator, if present.
func (s *Snapshot) DocumentByLocator(locator string) (DocumentRecord, bool) {
	for _, doc := range s.Documents {
		if doc.Locator == locator {
			return doc, true
		}
	}
	return DocumentRecord{}, false
}

// RecomputeStats refreshes the structural counts (total documents and
// unique terms) from the snapshot's maps, leaving pass counters alone.
func (s *Snapshot) RecomputeStats() {
	s.Stats.TotalFiles = len(s.Documents)
	s.Stats.UniqueTerms = len(s.Postings)
}

// NextLocalID returns the next free counter value for local document ids,
// one past the highest "doc-<n>" id present in the snapshot. Incremental
// builders start here so delta ids never reuse live ones.
func (s *Snapshot) NextLocalID() int {
	next := 1
	for id := range s.Documents {
		if !strings.HasPrefix(id, LocalIDPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, LocalIDPrefix))
		if err != nil {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}
	return next
}

// Validate checks the snapshot's structural invariants: every posted id
// exists in the document store and no term maps to an empty set.
func (s *Snapshot) Validate() error {
	if s.Postings == nil {
		return fmt.Errorf("missing postings section")
	}
	if s.Documents == nil {
		return fmt.Errorf("missing documents section")
	}
	for term, ids := range s.Postings {
		if len(ids) == 0 {
			return fmt.Errorf("term %q has an empty posting list", term)
		}
		for _, id := range ids {
			if _, ok := s.Documents[id]; !ok {
				return fmt.Errorf("term %q posts unknown document %q", term, id)
			}
		}
	}
	return nil
}

// insertSorted adds id to a sorted posting list, preserving order and
// deduplication.
func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// removeSorted deletes id from a sorted posting list if present.
func removeSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}

// unionSorted merges two sorted, deduplicated posting lists.
func unionSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
