// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/civiq/rag-sidecar/internal/config"
	"github.com/civiq/rag-sidecar/internal/embedding"
	"github.com/civiq/rag-sidecar/internal/ingestion"
	"github.com/civiq/rag-sidecar/internal/llm"
	"github.com/civiq/rag-sidecar/internal/logger"
	"github.com/civiq/rag-sidecar/middleware"
	"github.com/civiq/rag-sidecar/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	logger.Info("rag-sidecar starting", "env", cfg.Env, "port", cfg.Port)

	embedder, err := embedding.New(cfg)
	if err != nil {
		log.Fatal("Failed to construct embedder:", err)
	}

	ctl := ingestion.New(cfg, embedder)

	var collaborator *llm.Collaborator
	if cfg.GeminiAPIKey != "" {
		collaborator, err = llm.New(context.Background(), cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel,
			cfg.LLMHealthcheckTimeoutMS, cfg.LLMHealthcheckTTLSeconds)
		if err != nil {
			logger.Warn("llm: collaborator unavailable, continuing without it", "error", err)
			collaborator = nil
		}
	}

	logger.Info("ingestion: running initial build")
	if err := ctl.Rebuild(context.Background()); err != nil {
		logger.Error("ingestion: initial build failed", "error", err)
	}

	if cfg.Env == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "internal_error",
			"message":    "An unexpected error occurred",
		})
		c.Abort()
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RequestSizeLimit(1 << 20)) // 1 MB, queries are small JSON bodies

	routes.SetupRetrievalRoutes(router, cfg, ctl, embedder, collaborator)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}
	if collaborator != nil {
		collaborator.Close()
	}
	logger.Info("server exited")
}
