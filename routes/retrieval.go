package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiq/rag-sidecar/internal/apierr"
	"github.com/civiq/rag-sidecar/internal/config"
	"github.com/civiq/rag-sidecar/internal/embedding"
	"github.com/civiq/rag-sidecar/internal/ingestion"
	"github.com/civiq/rag-sidecar/internal/llm"
	"github.com/civiq/rag-sidecar/internal/retrieval"
	"github.com/civiq/rag-sidecar/models"
	"github.com/civiq/rag-sidecar/utils"
)

// SetupRetrievalRoutes wires the sidecar's four public endpoints: health,
// retrieve, rebuild, and document/chunk introspection.
func SetupRetrievalRoutes(router *gin.Engine, cfg *config.Config, ctl *ingestion.Controller, embedder embedding.Embedder, collaborator *llm.Collaborator) {
	router.GET("/health", HandleHealth(ctl, collaborator))
	router.POST("/retrieve", HandleRetrieve(cfg, ctl, embedder))
	router.POST("/rebuild", HandleRebuild(ctl))
	router.GET("/docs", HandleListDocs(ctl))
	router.GET("/docs/:docID/chunks", HandleListChunks(ctl))
}

// HandleHealth reports whether a snapshot has been published and, when an
// LLM collaborator is configured, its last known reachability.
func HandleHealth(ctl *ingestion.Controller, collaborator *llm.Collaborator) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := ctl.Snapshot()
		resp := models.HealthResponse{Status: "ok"}
		if snap == nil {
			resp.Status = "not_ready"
		} else {
			resp.DocsIndexed = len(snap.Documents)
			resp.ChunksLoaded = len(snap.Chunks.Chunks)
		}
		if collaborator != nil {
			ctx, cancel := utils.WithShortTimeout(c.Request.Context())
			defer cancel()
			healthy := collaborator.Healthy(ctx)
			resp.LLMHealthy = &healthy
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleRetrieve answers a hybrid search query against the current
// snapshot.
func HandleRetrieve(cfg *config.Config, ctl *ingestion.Controller, embedder embedding.Embedder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RetrieveRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
			status := apierr.StatusFor(apierr.ErrEmptyQuery)
			c.JSON(status, gin.H{"error_code": "empty_query", "message": apierr.ErrEmptyQuery.Error()})
			return
		}

		snap := ctl.Snapshot()
		if snap == nil {
			status := apierr.StatusFor(apierr.ErrNoIndexLoaded)
			c.JSON(status, gin.H{"error_code": "no_index", "message": apierr.ErrNoIndexLoaded.Error()})
			return
		}

		topK := req.TopK
		if topK <= 0 {
			topK = cfg.FinalTopK
		}

		results, err := retrieval.Retrieve(c.Request.Context(), snap, embedder, req.Query, topK, cfg)
		if err != nil {
			status := apierr.StatusFor(apierr.ErrEmbedderUnavailable)
			c.JSON(status, gin.H{"error_code": "embedder_unavailable", "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.RetrieveResponse{Query: req.Query, Results: results})
	}
}

// HandleRebuild triggers a background rebuild of the snapshot, rejecting
// the request outright if one is already running.
func HandleRebuild(ctl *ingestion.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		chunkCount := 0
		if snap := ctl.Snapshot(); snap != nil && snap.Chunks != nil {
			chunkCount = len(snap.Chunks.Chunks)
		}

		if !ctl.TriggerAsync(context.Background()) {
			status := apierr.StatusFor(apierr.ErrRebuildInProgress)
			c.JSON(status, models.RebuildResponse{Status: "conflict", Message: apierr.ErrRebuildInProgress.Error(), ChunkCount: chunkCount})
			return
		}
		c.JSON(http.StatusOK, models.RebuildResponse{Status: "started", ChunkCount: chunkCount})
	}
}

// HandleListDocs lists every document in the current snapshot.
func HandleListDocs(ctl *ingestion.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := ctl.Snapshot()
		if snap == nil {
			c.JSON(http.StatusOK, gin.H{"docs": []models.DocSummary{}})
			return
		}
		summaries := make([]models.DocSummary, 0, len(snap.Documents))
		for _, d := range snap.Documents {
			summaries = append(summaries, models.DocSummary{DocID: d.ID, DocName: d.DocName, NumPages: d.NumPages})
		}
		c.JSON(http.StatusOK, gin.H{"docs": summaries})
	}
}

// HandleListChunks lists every chunk belonging to one document, for
// debugging what the ingester produced.
func HandleListChunks(ctl *ingestion.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("docID")
		snap := ctl.Snapshot()
		if snap == nil {
			c.JSON(http.StatusOK, gin.H{"chunks": []models.Chunk{}})
			return
		}
		var chunks []models.Chunk
		for _, ch := range snap.Chunks.Chunks {
			if ch.DocID == docID {
				chunks = append(chunks, ch)
			}
		}
		c.JSON(http.StatusOK, gin.H{"chunks": chunks})
	}
}
