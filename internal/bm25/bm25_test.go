package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRanksTermFrequency(t *testing.T) {
	idx := New()
	idx.Add("a", "polls open at six in the morning for voters")
	idx.Add("b", "the voting location opens its doors")
	idx.Add("c", "completely unrelated text about envelopes")

	results := idx.Search("polls open voters")
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
}

func TestSearchEmptyQueryReturnsNil(t *testing.T) {
	idx := New()
	idx.Add("a", "some content")
	assert.Empty(t, idx.Search(""))
}

func TestSearchNoMatchesReturnsEmpty(t *testing.T) {
	idx := New()
	idx.Add("a", "apples and oranges")
	assert.Empty(t, idx.Search("submarine"))
}

func TestTokenizeDropsStopwords(t *testing.T) {
	toks := Tokenize("The quick brown fox")
	assert.NotContains(t, toks, "the")
	assert.Contains(t, toks, "quick")
}
