package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/civiq/rag-sidecar/internal/config"
	"github.com/civiq/rag-sidecar/internal/embedding"
	"github.com/civiq/rag-sidecar/models"
)

// Retrieve runs the full hybrid pipeline over a published snapshot: lexical
// and dense scoring, min-max normalised fusion with the time/number/phone/
// appendix adjustments, a keyword rescue pass over the reserved slots, and
// (when the primary result is weak) a page-level rescue pass.
func Retrieve(ctx context.Context, snap *Snapshot, embedder embedding.Embedder, query string, topK int, cfg *config.Config) ([]models.ChunkResult, error) {
	ci := snap.Chunks
	if ci == nil || len(ci.Chunks) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = cfg.FinalTopK
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	qc := newQueryContext(query)
	fused, bm25Norm, cosNorm := fuseChunks(ci, query, queryVec, qc, cfg)

	sortedIDs := sortByScoreDesc(fused)

	primaryCount := topK - cfg.ReservedRescueSlots
	if primaryCount < 0 {
		primaryCount = 0
	}
	if primaryCount > len(sortedIDs) {
		primaryCount = len(sortedIDs)
	}

	already := make(map[string]bool, topK)
	rescuedSet := make(map[string]bool, cfg.ReservedRescueSlots)
	var ordered []string
	for _, id := range sortedIDs[:primaryCount] {
		ordered = append(ordered, id)
		already[id] = true
	}

	if rescueSlots := topK - len(ordered); rescueSlots > 0 {
		for _, id := range keywordRescue(query, ci, fused, sortedIDs, already, rescueSlots, cfg.CapsRarityThreshold) {
			ordered = append(ordered, id)
			already[id] = true
			rescuedSet[id] = true
		}
	}

	if len(ordered) == 0 || fused[ordered[0]] < cfg.LowScoreThreshold {
		added := pageRescue(ctx, snap, embedder, query, queryVec, qc, cfg, already, fused)
		for _, id := range added {
			ordered = append(ordered, id)
			already[id] = true
			rescuedSet[id] = true
			if _, ok := fused[id]; !ok {
				fused[id] = computeChunkScore(ci, id, bm25Norm, cosNorm, qc, cfg)
			}
		}
	}

	if len(ordered) > topK {
		ordered = ordered[:topK]
	}

	results := make([]models.ChunkResult, 0, len(ordered))
	for _, id := range ordered {
		c, ok := ci.Chunk(id)
		if !ok {
			continue
		}
		results = append(results, models.ChunkResult{
			ChunkID:    c.ChunkID,
			DocID:      c.DocID,
			DocName:    c.DocName,
			Page:       c.Page,
			Section:    c.Section,
			Subheading: c.Subheading,
			Content:    c.RawContent,
			Score:      fused[id],
			BM25Score:  bm25Norm[id],
			CosScore:   cosNorm[id],
			Rescued:    rescuedSet[id],
		})
	}
	return results, nil
}

// fuseChunks scores every chunk in the index and returns the fused score
// map alongside the normalised BM25 and cosine components (kept around so
// the caller can report them per result without recomputing).
func fuseChunks(ci *ChunkIndex, query string, queryVec []float32, qc queryContext, cfg *config.Config) (fused, bm25Norm, cosNorm map[string]float64) {
	bm25Raw := make(map[string]float64, len(ci.Chunks))
	for _, r := range ci.BM25.Search(query) {
		bm25Raw[r.ID] = r.Score
	}
	cosRaw := make(map[string]float64, len(ci.Chunks))
	for i := range ci.Chunks {
		c := &ci.Chunks[i]
		cosRaw[c.ChunkID] = cosineSimilarity(queryVec, c.Vector)
	}

	bm25Norm = normalizeScores(bm25Raw)
	cosNorm = normalizeScores(cosRaw)

	fused = make(map[string]float64, len(ci.Chunks))
	for i := range ci.Chunks {
		c := &ci.Chunks[i]
		score := cfg.FusionBM25Weight*bm25Norm[c.ChunkID] + cfg.FusionCosineWeight*cosNorm[c.ChunkID]
		score += scoreAdjustment(qc, c.RawContent, c.Section)
		fused[c.ChunkID] = score
	}
	return fused, bm25Norm, cosNorm
}

func computeChunkScore(ci *ChunkIndex, id string, bm25Norm, cosNorm map[string]float64, qc queryContext, cfg *config.Config) float64 {
	c, ok := ci.Chunk(id)
	if !ok {
		return 0
	}
	score := cfg.FusionBM25Weight*bm25Norm[id] + cfg.FusionCosineWeight*cosNorm[id]
	return score + scoreAdjustment(qc, c.RawContent, c.Section)
}

func sortByScoreDesc(fused map[string]float64) []string {
	ids := make([]string, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if fused[ids[i]] != fused[ids[j]] {
			return fused[ids[i]] > fused[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// pageRescue runs a parallel fusion at page granularity and, for each of
// the top 3 pages, pulls in the best-fused chunk from that page that isn't
// already represented in the result set. It fires only when the primary
// chunk-level result looks weak.
func pageRescue(ctx context.Context, snap *Snapshot, embedder embedding.Embedder, query string, queryVec []float32, qc queryContext, cfg *config.Config, already map[string]bool, fused map[string]float64) []string {
	pi := snap.Pages
	if pi == nil || len(pi.Pages) == 0 {
		return nil
	}

	bm25Raw := make(map[string]float64, len(pi.Pages))
	for _, r := range pi.BM25.Search(query) {
		bm25Raw[r.ID] = r.Score
	}
	cosRaw := make(map[string]float64, len(pi.Pages))
	for i, p := range pi.Pages {
		cosRaw[pageID(i)] = cosineSimilarity(queryVec, p.Vector)
	}

	bm25Norm := normalizeScores(bm25Raw)
	cosNorm := normalizeScores(cosRaw)

	type pageScore struct {
		idx   int
		score float64
	}
	scored := make([]pageScore, len(pi.Pages))
	for i := range pi.Pages {
		id := pageID(i)
		score := cfg.FusionBM25Weight*bm25Norm[id] + cfg.FusionCosineWeight*cosNorm[id]
		score += scoreAdjustment(qc, pi.Pages[i].Text, pi.Pages[i].Title)
		scored[i] = pageScore{idx: i, score: score}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	topPages := 3
	if topPages > len(scored) {
		topPages = len(scored)
	}

	var added []string
	for _, ps := range scored[:topPages] {
		page := pi.Pages[ps.idx]
		best, ok := bestChunkOnPage(snap.Chunks, page.DocID, page.PageNum, already, fused)
		if ok {
			added = append(added, best)
			already[best] = true
		}
	}
	return added
}

// bestChunkOnPage picks the chunk on (docID, pageNum) with the highest fused
// score that isn't already in the result set, so a neighbour with stronger
// lexical evidence wins over one that merely looks similar in embedding
// space.
func bestChunkOnPage(ci *ChunkIndex, docID string, pageNum int, already map[string]bool, fused map[string]float64) (string, bool) {
	bestID := ""
	bestScore := -1.0
	for i := range ci.Chunks {
		c := &ci.Chunks[i]
		if c.DocID != docID || c.Page != pageNum || already[c.ChunkID] {
			continue
		}
		score := fused[c.ChunkID]
		if bestID == "" || score > bestScore {
			bestScore = score
			bestID = c.ChunkID
		}
	}
	return bestID, bestID != ""
}
