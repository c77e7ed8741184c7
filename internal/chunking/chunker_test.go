package chunking

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiq/rag-sidecar/models"
)

func words(n int) string {
	ws := make([]string, n)
	for i := range ws {
		ws[i] = "w" + strconv.Itoa(i)
	}
	return strings.Join(ws, " ")
}

func TestChunkSlidingWindow(t *testing.T) {
	cfg := models.ChunkingConfig{Width: 280, Overlap: 60, MinWords: 40}
	page := models.Page{PageNum: 1, Text: words(500), Section: "Section One"}

	chunks, next := Chunk(page, cfg, 0)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.WordCount, 15)
		assert.LessOrEqual(t, c.WordCount, cfg.Width)
		assert.Equal(t, 1, c.Page)
	}
	assert.Equal(t, len(chunks), next)
}

func TestChunkSkipsShortPage(t *testing.T) {
	cfg := models.ChunkingConfig{Width: 280, Overlap: 60, MinWords: 40}
	page := models.Page{PageNum: 1, Text: words(10)}

	chunks, next := Chunk(page, cfg, 0)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, next)
}

func TestChunkDropsShortTrailingSlice(t *testing.T) {
	cfg := models.ChunkingConfig{Width: 280, Overlap: 60, MinWords: 40}
	// 230 words: first window [0,230), stride 220 -> next start 220, slice 10 words (<15, dropped).
	page := models.Page{PageNum: 1, Text: words(230)}
	chunks, _ := Chunk(page, cfg, 0)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.WordCount, 15)
	}
}

func TestChunkIDsAreSequentialAcrossPages(t *testing.T) {
	cfg := models.ChunkingConfig{Width: 280, Overlap: 60, MinWords: 40}
	pages := []models.Page{
		{PageNum: 1, Text: words(300)},
		{PageNum: 2, Text: words(300)},
	}
	chunks, _ := ChunkDocument(pages, cfg, 0)
	for i, c := range chunks {
		assert.Equal(t, "chunk-"+strconv.Itoa(i), c.ChunkID)
	}
}
