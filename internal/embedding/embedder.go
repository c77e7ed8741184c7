// Package embedding wraps the external text-to-vector function the
// retrieval engine consumes but does not own, grounded on the teacher's
// internal/ai/embeddings.go dispatch but generalised to a batching
// interface and with the OpenAI branch actually implemented.
package embedding

import (
	"context"
	"fmt"

	"github.com/civiq/rag-sidecar/internal/config"
)

// Embedder is the narrow contract the retrieval engine depends on: text in,
// fixed-dimension float vectors out. Implementations are expected to be
// safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the Embedder named by cfg.EmbeddingsProvider.
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("embedding: missing GEMINI_API_KEY for google provider")
		}
		return NewGoogleEmbedder(cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("embedding: missing OPENAI_API_KEY for openai provider")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingsModel), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.EmbeddingsProvider)
	}
}
