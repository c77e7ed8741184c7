// Package retrieval builds the chunk-level and page-level indices and runs
// the hybrid query pipeline over them.
package retrieval

import (
	"fmt"

	"github.com/civiq/rag-sidecar/internal/bm25"
	"github.com/civiq/rag-sidecar/models"
)

// ChunkIndex pairs an ordered chunk list with a BM25 index over their
// contextual content and their embedding vectors (kept on the chunk
// structs themselves, unnormalised — cosine similarity is computed with
// explicit norms at query time).
type ChunkIndex struct {
	Chunks []models.Chunk
	byID   map[string]*models.Chunk
	BM25   *bm25.Index
}

// BuildChunkIndex indexes contextual_content for every chunk under its
// chunk id, in insertion order.
func BuildChunkIndex(chunks []models.Chunk) *ChunkIndex {
	idx := &ChunkIndex{
		Chunks: chunks,
		byID:   make(map[string]*models.Chunk, len(chunks)),
		BM25:   bm25.New(),
	}
	for i := range idx.Chunks {
		c := &idx.Chunks[i]
		idx.byID[c.ChunkID] = c
		idx.BM25.Add(c.ChunkID, c.ContextualContent)
	}
	return idx
}

func (ci *ChunkIndex) Chunk(id string) (*models.Chunk, bool) {
	c, ok := ci.byID[id]
	return c, ok
}

// PageEntry is one page's retrieval record: the same embedded string the
// original ingester built for page-level fallback search,
// "[<title>] <text>".
type PageEntry struct {
	DocID   string
	PageNum int
	Title   string
	Text    string
	Vector  []float32
}

// EmbeddingText builds the string embedded and BM25-indexed for this page:
// "[<title>] <text>", per the data model's page embedding contract.
func (p PageEntry) EmbeddingText() string {
	return fmt.Sprintf("[%s] %s", p.Title, p.Text)
}

// PageIndex is the page-granularity twin of ChunkIndex, built only after
// every document has been ingested.
type PageIndex struct {
	Pages []PageEntry
	BM25  *bm25.Index
}

// BuildPageIndex indexes every page under a synthetic id (its position in
// the slice) so fused scores can be mapped back to the page's chunks.
func BuildPageIndex(pages []PageEntry) *PageIndex {
	idx := &PageIndex{Pages: pages, BM25: bm25.New()}
	for i, p := range pages {
		idx.BM25.Add(pageID(i), p.EmbeddingText())
	}
	return idx
}

func pageID(i int) string { return fmt.Sprintf("page-%d", i) }

// Snapshot is the immutable triple published atomically by a rebuild:
// ChunkIndex, PageIndex, and the document list a reader observes together.
type Snapshot struct {
	Chunks    *ChunkIndex
	Pages     *PageIndex
	Documents []*models.Document
}
