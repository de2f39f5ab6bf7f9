package index

import (
	"log/slog"
	"sort"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// Merge combines a base snapshot with an incoming delta into one consistent
// snapshot. Posting lists are unioned per term; incoming documents replace
// base documents for the same locator (the base entry and its postings are
// excised first, since an incremental pass allocates a fresh id for a
// modified document). An id shared by two different locators is a bug and
// fails with ErrCodeMergeCollision rather than silently overwriting.
//
// Neither input is mutated. Pass counters in the result come from the
// incoming snapshot; structural counts are recomputed from the merged maps.
func Merge(base, incoming *Snapshot) (*Snapshot, error) {
	merged := clone(base)

	// A re-indexed locator supersedes its old document wholesale.
	reindexed := make(map[string]string, len(incoming.Documents))
	for _, doc := range incoming.Documents {
		reindexed[doc.Locator] = doc.ID
	}
	for id, doc := range merged.Documents {
		newID, ok := reindexed[doc.Locator]
		if ok && newID != id {
			removeDocument(merged, id)
		}
	}

	for id, doc := range incoming.Documents {
		if existing, ok := merged.Documents[id]; ok && existing.Locator != doc.Locator {
			return nil, dserrors.MergeCollision(id).
				WithDetail("base_locator", existing.Locator).
				WithDetail("incoming_locator", doc.Locator)
		}
		merged.Documents[id] = doc
	}

	for term, ids := range incoming.Postings {
		merged.Postings[term] = unionSorted(merged.Postings[term], ids)
	}

	merged.Sources = mergeSources(base.Sources, incoming.Sources)
	merged.Stats.NewFiles = incoming.Stats.NewFiles
	merged.Stats.ModifiedFiles = incoming.Stats.ModifiedFiles
	merged.Stats.DeletedFiles = incoming.Stats.DeletedFiles
	merged.Stats.SkippedFiles = incoming.Stats.SkippedFiles
	merged.RecomputeStats()

	return merged, nil
}

// ApplyDeletions removes the documents for the given locators from the
// snapshot's document store and from every posting list referencing them,
// pruning terms left with an empty posting list. Returns the number of
// documents actually removed. The snapshot is mutated in place.
func ApplyDeletions(snap *Snapshot, locators []string) int {
	byLocator := make(map[string]string, len(snap.Documents))
	for id, doc := range snap.Documents {
		byLocator[doc.Locator] = id
	}

	removed := 0
	for _, locator := range locators {
		id, ok := byLocator[locator]
		if !ok {
			slog.Debug("deletion for locator not in snapshot", slog.String("locator", locator))
			continue
		}
		removeDocument(snap, id)
		removed++
	}

	snap.RecomputeStats()
	return removed
}

// removeDocument excises one document from the store and all posting lists.
func removeDocument(snap *Snapshot, id string) {
	delete(snap.Documents, id)
	for term, ids := range snap.Postings {
		pruned := removeSorted(ids, id)
		if len(pruned) == 0 {
			delete(snap.Postings, term)
			continue
		}
		snap.Postings[term] = pruned
	}
}

// mergeSources unions two source descriptor lists, sorted for determinism.
func mergeSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// clone deep-copies a snapshot so merges never mutate their inputs.
func clone(s *Snapshot) *Snapshot {
	out := &Snapshot{
		SchemaVersion: s.SchemaVersion,
		Sources:       append([]string(nil), s.Sources...),
		Postings:      make(map[string][]string, len(s.Postings)),
		Documents:     make(map[string]DocumentRecord, len(s.Documents)),
		Stats:         s.Stats,
	}
	for term, ids := range s.Postings {
		out.Postings[term] = append([]string(nil), ids...)
	}
	for id, doc := range s.Documents {
		out.Documents[id] = doc
	}
	return out
}
