package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every tunable named in the retrieval engine's specification
// (chunking geometry, fusion weights, rescue thresholds, cache versioning)
// plus the credentials needed to reach the external embedder and the
// optional LLM collaborator.
type Config struct {
	Env string // "debug" or "release" — mirrors the teacher's GIN_MODE switch
	Port string

	DocsDir  string
	CacheDir string

	EmbeddingsProvider    string // "google" (default) or "openai"
	GoogleEmbeddingsModel string
	GeminiAPIKey          string
	OpenAIAPIKey          string
	OpenAIEmbeddingsModel string
	EmbeddingDim          int

	ChunkWidth          int
	ChunkOverlap        int
	MinPageWords        int
	FinalTopK           int
	CacheVersion        string
	FusionBM25Weight    float64
	FusionCosineWeight  float64
	LowScoreThreshold   float64
	ReservedRescueSlots int
	CapsRarityThreshold float64 // fraction of corpus above which an all-caps token is ignored by keyword rescue

	CORSOrigins []string

	LLMHealthcheckTimeoutMS  int
	LLMHealthcheckTTLSeconds int
}

// Load reads configuration from the environment, loading a .env file first
// when one is present, exactly as the teacher's LoadConfig does.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Env:  getEnv("RAG_ENV", "debug"),
		Port: getEnv("PORT", "8000"),

		DocsDir:  getEnv("RAG_DOCS_DIR", "./docs"),
		CacheDir: getEnv("RAG_CACHE_DIR", "./.cache"),

		EmbeddingsProvider:    getEnv("RAG_EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("RAG_GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingsModel: getEnv("RAG_OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbeddingDim:          getEnvInt("RAG_EMBEDDING_DIM", 768),

		ChunkWidth:          getEnvInt("RAG_CHUNK_WIDTH", 280),
		ChunkOverlap:        getEnvInt("RAG_CHUNK_OVERLAP", 60),
		MinPageWords:        getEnvInt("RAG_MIN_PAGE_WORDS", 40),
		FinalTopK:           getEnvInt("RAG_FINAL_TOP_K", 15),
		CacheVersion:        getEnv("RAG_CACHE_VERSION", "v1-280w"),
		FusionBM25Weight:    getEnvFloat64("RAG_FUSION_BM25_WEIGHT", 0.5),
		FusionCosineWeight:  getEnvFloat64("RAG_FUSION_COSINE_WEIGHT", 0.5),
		LowScoreThreshold:   getEnvFloat64("RAG_LOW_SCORE_THRESHOLD", 0.6),
		ReservedRescueSlots: getEnvInt("RAG_RESERVED_RESCUE_SLOTS", 5),
		CapsRarityThreshold: getEnvFloat64("RAG_CAPS_RARITY_THRESHOLD", 0.4),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		LLMHealthcheckTimeoutMS:  getEnvInt("RAG_LLM_HEALTHCHECK_TIMEOUT_MS", 2000),
		LLMHealthcheckTTLSeconds: getEnvInt("RAG_LLM_HEALTHCHECK_TTL_S", 30),
	}

	if cfg.EmbeddingsProvider == "google" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when RAG_EMBEDDINGS_PROVIDER=google")
	}
	if cfg.EmbeddingsProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when RAG_EMBEDDINGS_PROVIDER=openai")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
