// Package ingestion drives a full rebuild of the retrieval snapshot: scan
// the docs directory, load or compute each document's chunks, embed what
// the cache didn't already have, and publish the result as one atomic
// Snapshot swap. Grounded on the teacher's PDFService orchestration in
// services/pdf_service.go (validate, store, process, persist as discrete
// steps) but built around a content-addressed cache instead of Mongo.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/civiq/rag-sidecar/internal/apierr"
	"github.com/civiq/rag-sidecar/internal/cache"
	"github.com/civiq/rag-sidecar/internal/chunking"
	"github.com/civiq/rag-sidecar/internal/config"
	"github.com/civiq/rag-sidecar/internal/embedding"
	"github.com/civiq/rag-sidecar/internal/facts"
	"github.com/civiq/rag-sidecar/internal/logger"
	"github.com/civiq/rag-sidecar/internal/pdfdoc"
	"github.com/civiq/rag-sidecar/internal/retrieval"
	"github.com/civiq/rag-sidecar/models"
)

const maxConcurrentIngests = 4

// Controller owns the published snapshot and coordinates rebuilds against
// it. A single in-flight rebuild is enforced by rebuilding, a CAS flag, so a
// second trigger while one is running fails fast with ErrRebuildInProgress
// rather than queuing or racing the cache directory.
type Controller struct {
	cfg      *config.Config
	embedder embedding.Embedder
	cacheMgr *cache.Manager

	rebuilding atomic.Bool
	snapshot   atomic.Pointer[retrieval.Snapshot]
}

func New(cfg *config.Config, embedder embedding.Embedder) *Controller {
	return &Controller{
		cfg:      cfg,
		embedder: embedder,
		cacheMgr: cache.NewManager(cfg.CacheDir, cfg.CacheVersion),
	}
}

// Snapshot returns the currently published snapshot, or nil if no rebuild
// has completed yet.
func (c *Controller) Snapshot() *retrieval.Snapshot {
	return c.snapshot.Load()
}

// Rebuild performs a full re-ingestion of every PDF under cfg.DocsDir and
// atomically swaps in the resulting snapshot. It refuses to start a second
// rebuild while one is already running.
func (c *Controller) Rebuild(ctx context.Context) error {
	if !c.rebuilding.CompareAndSwap(false, true) {
		return apierr.ErrRebuildInProgress
	}
	defer c.rebuilding.Store(false)
	return c.rebuildLocked(ctx)
}

// TriggerAsync attempts to acquire the single-writer rebuild lock and, if
// successful, starts the rebuild in a background goroutine and returns true
// immediately. It returns false without blocking if a rebuild is already in
// flight, so an HTTP handler can answer "conflict" without waiting on the
// rebuild itself.
func (c *Controller) TriggerAsync(ctx context.Context) bool {
	if !c.rebuilding.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer c.rebuilding.Store(false)
		if err := c.rebuildLocked(context.Background()); err != nil {
			logger.Error("ingestion: background rebuild failed", "error", err)
		}
	}()
	return true
}

func (c *Controller) rebuildLocked(ctx context.Context) error {
	start := time.Now()
	logger.Info("ingestion: rebuild starting", "docs_dir", c.cfg.DocsDir)

	if err := c.cacheMgr.CleanStale(); err != nil {
		logger.Warn("ingestion: stale cache sweep failed", "error", err)
	}

	paths, err := scanPDFs(c.cfg.DocsDir)
	if err != nil {
		return fmt.Errorf("ingestion: scan docs dir: %w", err)
	}

	docs := make([]*models.Document, len(paths))
	allChunks := make([][]models.Chunk, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentIngests)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			doc, chunks, err := c.ingestOne(gctx, path)
			if err != nil {
				if errors.Is(err, apierr.ErrEmbedderUnavailable) {
					return fmt.Errorf("ingestion: %s: %w", path, err)
				}
				logger.Warn("ingestion: skipping document that failed to ingest", "path", path, "error", err)
				return nil
			}
			docs[i] = doc
			allChunks[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var flatChunks []models.Chunk
	var pageEntries []retrieval.PageEntry
	counter := 0
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		for _, ch := range allChunks[i] {
			ch.ChunkID = fmt.Sprintf("chunk-%d", counter)
			ch.DocID = doc.ID
			ch.DocName = doc.DocName
			flatChunks = append(flatChunks, ch)
			counter++
		}
		for _, p := range doc.Pages {
			pageEntries = append(pageEntries, retrieval.PageEntry{
				DocID:   doc.ID,
				PageNum: p.PageNum,
				Title:   p.Title(),
				Text:    p.Text,
			})
		}
	}
	docs = filterNilDocs(docs)

	if err := embedPages(ctx, c.embedder, pageEntries); err != nil {
		return fmt.Errorf("ingestion: embed pages: %w", err)
	}

	snap := &retrieval.Snapshot{
		Chunks:    retrieval.BuildChunkIndex(flatChunks),
		Pages:     retrieval.BuildPageIndex(pageEntries),
		Documents: docs,
	}
	c.snapshot.Store(snap)

	logger.Info("ingestion: rebuild complete", "docs", len(docs), "chunks", len(flatChunks),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// embedPages computes each page's retrieval embedding by calling the
// embedder on "[<title>] <text>", the same string indexed for BM25 — per
// the data model's page embedding contract, never an average of the
// page's chunk vectors.
func embedPages(ctx context.Context, embedder embedding.Embedder, pages []retrieval.PageEntry) error {
	if len(pages) == 0 {
		return nil
	}
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.EmbeddingText()
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i := range pages {
		if i < len(vectors) {
			pages[i].Vector = vectors[i]
		}
	}
	return nil
}

func filterNilDocs(docs []*models.Document) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// ingestOne parses (or loads from cache) a single document, producing its
// chunked, fact-enriched, embedded content.
func (c *Controller) ingestOne(ctx context.Context, path string) (*models.Document, []models.Chunk, error) {
	doc, err := pdfdoc.Parse(path)
	if err != nil {
		return nil, nil, err
	}

	if cached := c.cacheMgr.Load(doc.ID); cached != nil {
		doc.FromCache = true
		doc.IngestedAt = time.Now()
		return doc, cached, nil
	}

	chunkCfg := models.ChunkingConfig{
		Width:    c.cfg.ChunkWidth,
		Overlap:  c.cfg.ChunkOverlap,
		MinWords: c.cfg.MinPageWords,
	}
	chunks, _ := chunking.ChunkDocument(doc.Pages, chunkCfg, 0)
	for i := range chunks {
		chunks[i].ContextualContent = facts.BuildContextualContent(chunks[i].RawContent, chunks[i].Section)
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.ContextualContent
		}
		vectors, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embed chunks: %w: %w", apierr.ErrEmbedderUnavailable, err)
		}
		for i := range chunks {
			if i < len(vectors) {
				chunks[i].Vector = vectors[i]
			}
		}
	}

	doc.FromCache = false
	doc.IngestedAt = time.Now()

	if err := c.cacheMgr.Save(doc.ID, chunks); err != nil {
		logger.Warn("ingestion: failed to persist cache entry", "doc_id", doc.ID, "error", err)
	}

	return doc, chunks, nil
}

func scanPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".pdf" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
