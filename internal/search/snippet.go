package search

import (
	"strings"
	"unicode/utf8"

	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

// SnippetWindow is the target snippet length in bytes.
const SnippetWindow = 200

// Ellipsis marks a clipped snippet edge.
const Ellipsis = "..."

// Snippet extracts a window of roughly SnippetWindow bytes around the
// densest cluster of query terms: among all windows starting at a term
// occurrence, the one covering the most distinct query terms wins, with
// the earliest such window as the tiebreak. When no term occurs in the
// text the leading window is returned. Clipped edges get an ellipsis.
func Snippet(tok *token.Tokenizer, text string, queryTerms []string) string {
	if len(text) <= SnippetWindow {
		return strings.TrimSpace(text)
	}

	termSet := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		termSet[term] = struct{}{}
	}

	var matches []token.Span
	for _, span := range tok.Offsets(text) {
		if _, ok := termSet[span.Term]; ok {
			matches = append(matches, span)
		}
	}

	if len(matches) == 0 {
		return clip(text, 0, SnippetWindow)
	}

	bestStart, bestCount := matches[0].Start, 0
	for i := range matches {
		windowEnd := matches[i].Start + SnippetWindow
		distinct := make(map[string]struct{})
		for j := i; j < len(matches) && matches[j].End <= windowEnd; j++ {
			distinct[matches[j].Term] = struct{}{}
		}
		if len(distinct) > bestCount {
			bestCount = len(distinct)
			bestStart = matches[i].Start
		}
	}

	return clip(text, bestStart, bestStart+SnippetWindow)
}

// clip returns text[start:end] trimmed to rune boundaries and whitespace,
// with an ellipsis on each clipped edge.
func clip(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	// Pull both edges back onto rune boundaries.
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	for start < end && !utf8.RuneStart(text[start]) {
		start++
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = Ellipsis + out
	}
	if end < len(text) {
		out += Ellipsis
	}
	return out
}
