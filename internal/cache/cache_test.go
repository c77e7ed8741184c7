package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiq/rag-sidecar/models"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "v1-280w")

	chunks := []models.Chunk{
		{ChunkID: "chunk-0", DocID: "abc123", RawContent: "first chunk", Vector: []float32{0.1, 0.2, 0.3}},
		{ChunkID: "chunk-1", DocID: "abc123", RawContent: "second chunk", Vector: []float32{0.4, 0.5, 0.6}},
	}

	require.NoError(t, m.Save("abc123", chunks))

	loaded := m.Load("abc123")
	require.Len(t, loaded, 2)
	assert.Equal(t, "chunk-0", loaded[0].ChunkID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, loaded[0].Vector)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, loaded[1].Vector)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	m := NewManager(t.TempDir(), "v1-280w")
	assert.Nil(t, m.Load("missing"))
}

func TestLoadRowMismatchReturnsNil(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "v1-280w")
	chunks := []models.Chunk{
		{ChunkID: "chunk-0", Vector: []float32{0.1}},
		{ChunkID: "chunk-1", Vector: []float32{0.2}},
	}
	require.NoError(t, m.Save("doc1", chunks))

	// Corrupt by overwriting the embedding file with a 1-row matrix.
	require.NoError(t, writeNPY(m.embeddingPath("doc1"), [][]float32{{0.1}}))

	assert.Nil(t, m.Load("doc1"))
}

func TestCleanStaleRemovesOldVersionOnly(t *testing.T) {
	dir := t.TempDir()
	current := NewManager(dir, "v2-280w")
	stale := NewManager(dir, "v1-280w")

	chunks := []models.Chunk{{ChunkID: "chunk-0", Vector: []float32{0.1}}}
	require.NoError(t, current.Save("doc1", chunks))
	require.NoError(t, stale.Save("doc1", chunks))

	require.NoError(t, current.CleanStale())

	assert.NotNil(t, current.Load("doc1"))
	assert.Nil(t, stale.Load("doc1"))
}
