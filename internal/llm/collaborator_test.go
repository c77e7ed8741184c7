package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civiq/rag-sidecar/models"
)

func TestExpandQueryIsIdentityWhenDisabled(t *testing.T) {
	c := &Collaborator{}
	out, err := c.ExpandQuery(context.Background(), "when do gates open")
	assert.NoError(t, err)
	assert.Equal(t, "when do gates open", out)
}

func TestRerankIsIdentityWhenDisabled(t *testing.T) {
	c := &Collaborator{}
	in := []models.ChunkResult{{ChunkID: "a"}, {ChunkID: "b"}}
	out, err := c.Rerank(context.Background(), "query", in)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseRerankScoresPadsUnmentionedWithNeutral(t *testing.T) {
	text := "1: 9\n2: 3\n"
	scores := parseRerankScores(text, 4)
	assert.Equal(t, []int{9, 3, neutralRerankScore, neutralRerankScore}, scores)
}

func TestParseRerankScoresIgnoresMalformedLines(t *testing.T) {
	text := "garbage line with no score data\n1: 7\nanother stray line\n"
	scores := parseRerankScores(text, 2)
	assert.Equal(t, []int{7, neutralRerankScore}, scores)
}

func TestBuildRerankPromptTruncatesLongPassages(t *testing.T) {
	long := make([]byte, 900)
	for i := range long {
		long[i] = 'x'
	}
	candidates := []models.ChunkResult{{ChunkID: "a", Content: string(long)}}
	prompt := buildRerankPrompt("q", candidates)
	assert.NotContains(t, prompt, string(long))
	assert.Contains(t, prompt, string(long[:rerankPassageMaxChars]))
}

func TestApplyRerankScoresOrdersDescending(t *testing.T) {
	candidates := []models.ChunkResult{
		{ChunkID: "low"},
		{ChunkID: "high"},
		{ChunkID: "mid"},
	}
	scores := []int{2, 9, 5}
	out := applyRerankScores(candidates, scores)
	assert.Equal(t, []string{"high", "mid", "low"}, []string{out[0].ChunkID, out[1].ChunkID, out[2].ChunkID})
}
