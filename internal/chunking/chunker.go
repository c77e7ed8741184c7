// Package chunking slices a page's text into overlapping sliding windows,
// grounded on the sliding-window loop in the teacher's createChunks, but
// tuned to the word-count geometry (width, overlap, minimum trailing slice)
// this engine requires instead of the teacher's character-count chunking.
package chunking

import (
	"fmt"
	"strings"

	"github.com/civiq/rag-sidecar/models"
)

const minTrailingWords = 15

// Chunk slices one page's text into non-overlapping-start, overlapping-span
// windows of cfg.Width words, advancing by cfg.Width-cfg.Overlap each step.
// A page with fewer than cfg.MinWords words yields no chunks. The trailing
// slice is only emitted if it contains at least 15 words. Chunking never
// crosses a page boundary: each call operates on a single page.
func Chunk(page models.Page, cfg models.ChunkingConfig, startCounter int) ([]models.Chunk, int) {
	words := strings.Fields(page.Text)
	if len(words) < cfg.MinWords {
		return nil, startCounter
	}

	stride := cfg.Width - cfg.Overlap
	if stride < 1 {
		stride = 1
	}

	var chunks []models.Chunk
	counter := startCounter
	for start := 0; start < len(words); start += stride {
		end := start + cfg.Width
		if end > len(words) {
			end = len(words)
		}
		slice := words[start:end]
		if len(slice) < minTrailingWords {
			break
		}

		chunks = append(chunks, models.Chunk{
			ChunkID:    fmt.Sprintf("chunk-%d", counter),
			Page:       page.PageNum,
			Section:    page.Title(),
			RawContent: strings.Join(slice, " "),
			WordCount:  len(slice),
		})
		counter++
	}

	return chunks, counter
}

// ChunkDocument chunks every page of a document in order, numbering chunk
// ids sequentially starting from startCounter, and returns the next free
// counter value for the caller to continue with across documents.
func ChunkDocument(pages []models.Page, cfg models.ChunkingConfig, startCounter int) ([]models.Chunk, int) {
	var all []models.Chunk
	counter := startCounter
	for _, p := range pages {
		cs, next := Chunk(p, cfg, counter)
		all = append(all, cs...)
		counter = next
	}
	return all, counter
}
