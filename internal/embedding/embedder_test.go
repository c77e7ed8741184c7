package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiq/rag-sidecar/internal/config"
)

func TestNewRejectsMissingGoogleKey(t *testing.T) {
	_, err := New(&config.Config{EmbeddingsProvider: "google"})
	require.Error(t, err)
}

func TestNewRejectsMissingOpenAIKey(t *testing.T) {
	_, err := New(&config.Config{EmbeddingsProvider: "openai"})
	require.Error(t, err)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(&config.Config{EmbeddingsProvider: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewGoogleDefaultsToGoogleProvider(t *testing.T) {
	e, err := New(&config.Config{EmbeddingsProvider: "", GeminiAPIKey: "key"})
	require.NoError(t, err)
	_, ok := e.(*GoogleEmbedder)
	assert.True(t, ok)
}
