// Package token provides the shared tokenizer for desktop-search.
// The same function runs on the index-build path and the query path so
// that a query term can never miss a document over normalization drift.
package token

import (
	"regexp"
	"strings"
)

// DefaultMinLength is the minimum token length kept by the tokenizer.
const DefaultMinLength = 2

// tokenRegex matches runs of alphanumeric characters. Everything else
// (punctuation, whitespace, underscores) is a separator.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// DefaultStopWords are common English words excluded from the index.
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "from", "has", "have", "in", "is", "it", "its",
	"of", "on", "or", "that", "the", "this", "to", "was",
	"were", "will", "with",
}

// Tokenizer normalizes text into index terms.
// The zero value is not usable; construct with New.
type Tokenizer struct {
	minLength int
	stopWords map[string]struct{}
}

// New creates a Tokenizer with the given minimum token length and stopword
// list. A minLength of 0 uses DefaultMinLength; a nil stopWords slice uses
// DefaultStopWords.
func New(minLength int, stopWords []string) *Tokenizer {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	return &Tokenizer{
		minLength: minLength,
		stopWords: BuildStopWordMap(stopWords),
	}
}

// Default returns a Tokenizer with default settings.
func Default() *Tokenizer {
	return New(DefaultMinLength, nil)
}

// Tokenize lowercases text and splits it on runs of non-alphanumeric
// characters, dropping tokens below the minimum length and stopwords.
// Deterministic and side-effect free; empty input yields an empty slice.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		lower := strings.ToLower(word)
		if len(lower) < t.minLength {
			continue
		}
		if _, isStop := t.stopWords[lower]; isStop {
			continue
		}
		tokens = append(tokens, lower)
	}

	return tokens
}

// Span is one token occurrence with its byte offsets in the original text.
type Span struct {
	Term  string
	Start int
	End   int
}

// Offsets tokenizes text like Tokenize but keeps byte offsets, for
// callers that need to locate terms in the original text.
func (t *Tokenizer) Offsets(text string) []Span {
	if text == "" {
		return nil
	}

	matches := tokenRegex.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(matches))

	for _, m := range matches {
		lower := strings.ToLower(text[m[0]:m[1]])
		if len(lower) < t.minLength {
			continue
		}
		if _, isStop := t.stopWords[lower]; isStop {
			continue
		}
		spans = append(spans, Span{Term: lower, Start: m[0], End: m[1]})
	}

	return spans
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
