package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radhakrish-venkat/desktop-search/internal/index"
	"github.com/radhakrish-venkat/desktop-search/internal/token"
)

func buildSnapshot(t *testing.T, docs map[string]string) *index.Snapshot {
	t.Helper()
	builder := index.NewBuilder(token.Default(), "test", "")
	for locator, text := range docs {
		builder.Add(locator, text, index.DocumentMeta{})
	}
	return builder.Snapshot()
}

func newRanker(t *testing.T) *Ranker {
	t.Helper()
	ranker, err := NewRanker(token.Default(), 0)
	require.NoError(t, err)
	return ranker
}

func resultLocators(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Locator
	}
	return out
}

func TestRanker_FindsMatchingDocuments(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{
		"fruit.txt":   "apple orange banana",
		"veggies.txt": "carrot potato onion",
	})

	results, err := newRanker(t).Search(context.Background(), snap, "apple", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fruit.txt", results[0].Locator)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Contains(t, results[0].Snippet, "apple")
}

func TestRanker_OrSemantics(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{
		"a.txt": "apple only here",
		"b.txt": "banana only here",
		"c.txt": "nothing relevant",
	})

	results, err := newRanker(t).Search(context.Background(), snap, "apple banana", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, resultLocators(results))
}

func TestRanker_LengthNormalization(t *testing.T) {
	// Three mentions in ten words must outrank one mention in a hundred.
	short := "apple apple apple one two three four five six seven"
	long := "apple " + strings.Repeat("filler padding words here nothing special ", 17)

	snap := buildSnapshot(t, map[string]string{
		"short.txt": short,
		"long.txt":  long,
	})

	results, err := newRanker(t).Search(context.Background(), snap, "apple", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "short.txt", results[0].Locator)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRanker_RareTermOutweighsCommon(t *testing.T) {
	// "zebra" appears in one doc, "common" in all three. The zebra doc
	// must rank first for a query containing both.
	snap := buildSnapshot(t, map[string]string{
		"a.txt": "common words everywhere zebra",
		"b.txt": "common words everywhere again",
		"c.txt": "common words everywhere more",
	})

	results, err := newRanker(t).Search(context.Background(), snap, "common zebra", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a.txt", results[0].Locator)
}

func TestRanker_LimitAndTiebreak(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{
		"b.txt": "apple pie",
		"a.txt": "apple pie",
		"c.txt": "apple pie",
	})

	results, err := newRanker(t).Search(context.Background(), snap, "apple", 2)
	require.NoError(t, err)
	// Identical scores fall back to locator order.
	assert.Equal(t, []string{"a.txt", "b.txt"}, resultLocators(results))
}

func TestRanker_DefaultLimit(t *testing.T) {
	docs := make(map[string]string)
	for i := 0; i < 15; i++ {
		docs[strings.Repeat("x", i+1)+".txt"] = "apple"
	}
	snap := buildSnapshot(t, docs)

	results, err := newRanker(t).Search(context.Background(), snap, "apple", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultLimit)
}

func TestRanker_NoMatchesAndEmptyQuery(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"a.txt": "apple"})
	ranker := newRanker(t)

	results, err := ranker.Search(context.Background(), snap, "nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Stopwords and punctuation normalize to nothing.
	results, err = ranker.Search(context.Background(), snap, "the !!", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRanker_EmptySnapshot(t *testing.T) {
	snap := index.NewSnapshot("test")

	results, err := newRanker(t).Search(context.Background(), snap, "apple", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRanker_QueryNormalizationMatchesIndex(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"a.txt": "Apple-Pie recipes"})

	results, err := newRanker(t).Search(context.Background(), snap, "APPLE, pie!", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestRanker_PurgeDropsStaleTokens(t *testing.T) {
	ranker := newRanker(t)
	snap := buildSnapshot(t, map[string]string{"a.txt": "apple"})

	_, err := ranker.Search(context.Background(), snap, "apple", 10)
	require.NoError(t, err)

	// Same document id, new content: without a purge the cached tokens
	// would still say "apple".
	rebuilt := buildSnapshot(t, map[string]string{"a.txt": "banana"})
	ranker.Purge()

	results, err := ranker.Search(context.Background(), rebuilt, "banana", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = ranker.Search(context.Background(), rebuilt, "apple", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRanker_CancelledContext(t *testing.T) {
	snap := buildSnapshot(t, map[string]string{"a.txt": "apple"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRanker(t).Search(ctx, snap, "apple", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
