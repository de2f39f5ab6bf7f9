// Package search ranks snapshot documents against free-text queries with
// TF-IDF scoring and extracts result snippets.
package search

import (
	"context"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
	"github.com/radhakrish-venkat/desktop-search/internal/index"
	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

// DefaultLimit is the result cap applied when the caller passes 0.
const DefaultLimit = 10

// defaultCacheSize bounds the tokenized-document cache.
const defaultCacheSize = 1024

// Result is one ranked search hit.
type Result struct {
	DocID   string  `json:"doc_id"`
	Locator string  `json:"locator"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Ranker scores documents with TF-IDF. Term frequency is normalized by
// document length so short relevant documents outrank long ones that
// mention a term in passing. Candidates are the union of the posting
// lists of the query terms.
type Ranker struct {
	tok   *token.Tokenizer
	cache *lru.Cache[string, []string]
}

// NewRanker creates a ranker sharing the index tokenizer. cacheSize of 0
// uses the default.
func NewRanker(tok *token.Tokenizer, cacheSize int) (*Ranker, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodeInternal, "failed to create token cache", err)
	}
	return &Ranker{tok: tok, cache: cache}, nil
}

// Purge drops the tokenized-document cache. The owner must call this
// whenever the snapshot is replaced, since remote document ids survive
// re-indexing with new content.
func (r *Ranker) Purge() {
	r.cache.Purge()
}

// Search ranks snap's documents against query and returns at most limit
// results, ordered by descending score with locator as the tiebreak.
// A query that normalizes to no terms matches nothing.
func (r *Ranker) Search(ctx context.Context, snap *index.Snapshot, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := distinctTerms(r.tok.Tokenize(query))
	if len(terms) == 0 {
		return []Result{}, nil
	}

	totalDocs := len(snap.Documents)
	if totalDocs == 0 {
		return []Result{}, nil
	}

	// Candidate set: any document posting at least one query term.
	candidates := make(map[string]struct{})
	for _, term := range terms {
		for _, id := range snap.Postings[term] {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(candidates))
	for id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc := snap.Documents[id]
		docTokens := r.docTokens(id, doc.Text)
		if len(docTokens) == 0 {
			continue
		}

		score := 0.0
		for _, term := range terms {
			df := len(snap.Postings[term])
			if df == 0 {
				continue
			}
			occurrences := 0
			for _, tk := range docTokens {
				if tk == term {
					occurrences++
				}
			}
			if occurrences == 0 {
				continue
			}
			tf := float64(occurrences) / float64(len(docTokens))
			idf := math.Log(float64(totalDocs) / float64(df))
			score += tf * idf
		}

		results = append(results, Result{
			DocID:   id,
			Locator: doc.Locator,
			Score:   score,
			Snippet: Snippet(r.tok, doc.Text, terms),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Locator < results[j].Locator
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// docTokens returns the tokenized text for a document, memoized by id.
func (r *Ranker) docTokens(id, text string) []string {
	if tokens, ok := r.cache.Get(id); ok {
		return tokens
	}
	tokens := r.tok.Tokenize(text)
	r.cache.Add(id, tokens)
	return tokens
}

// distinctTerms deduplicates query terms, preserving first-seen order.
func distinctTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
