package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleEmbedder calls the Generative AI embedding endpoint, the same SDK
// the teacher's internal/ai/embeddings.go and gemini_client.go use.
type GoogleEmbedder struct {
	apiKey string
	model  string
}

func NewGoogleEmbedder(apiKey, model string) *GoogleEmbedder {
	return &GoogleEmbedder{apiKey: apiKey, model: model}
}

func (e *GoogleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, fmt.Errorf("embedding: genai client: %w", err)
	}
	defer client.Close()

	model := client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding: google embed: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("embedding: no vector returned")
	}
	return resp.Embedding.Values, nil
}

func (e *GoogleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, fmt.Errorf("embedding: genai client: %w", err)
	}
	defer client.Close()

	model := client.EmbeddingModel(e.model)
	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("embedding: google batch embed: %w", err)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}
