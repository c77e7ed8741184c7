// Package cache implements the content-addressed, version-tagged on-disk
// cache of per-document chunks and their embeddings, grounded on the
// teacher's SecureStore atomic-write pattern (temp file + rename, uuid temp
// names). Chunk JSON is gzip-compressed on disk using the teacher's
// compression helpers before the atomic rename.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/civiq/rag-sidecar/internal/logger"
	"github.com/civiq/rag-sidecar/models"
	"github.com/civiq/rag-sidecar/utils"
)

// Manager reads and writes cache entries under a single directory.
type Manager struct {
	dir     string
	version string
}

func NewManager(dir, version string) *Manager {
	return &Manager{dir: dir, version: version}
}

func (m *Manager) chunkPath(docID string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%s.json.gz", docID, m.version))
}

func (m *Manager) embeddingPath(docID string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%s.npy", docID, m.version))
}

// Load returns the cached chunks for docID with embeddings re-attached, or
// nil if no entry exists or the entry's artefacts are row-count
// inconsistent (treated as a cache miss, not an error).
func (m *Manager) Load(docID string) []models.Chunk {
	chunkPath := m.chunkPath(docID)
	embPath := m.embeddingPath(docID)

	if _, err := os.Stat(chunkPath); err != nil {
		return nil
	}
	if _, err := os.Stat(embPath); err != nil {
		return nil
	}

	compressed, err := os.ReadFile(chunkPath)
	if err != nil {
		logger.Warn("cache: failed to read chunk cache", "doc_id", docID, "error", err)
		return nil
	}
	raw, err := utils.DecompressData(compressed, utils.CompressionGzip)
	if err != nil {
		logger.Warn("cache: failed to decompress chunk cache", "doc_id", docID, "error", err)
		return nil
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		logger.Warn("cache: failed to parse chunk cache", "doc_id", docID, "error", err)
		return nil
	}

	matrix, err := readNPY(embPath)
	if err != nil {
		logger.Warn("cache: failed to read embedding cache", "doc_id", docID, "error", err)
		return nil
	}

	if len(matrix) != len(chunks) {
		logger.Warn("cache: row count mismatch, treating as cache miss", "doc_id", docID,
			"chunks", len(chunks), "embeddings", len(matrix))
		return nil
	}

	for i := range chunks {
		chunks[i].Vector = matrix[i]
	}
	logger.Info("cache: loaded chunks from disk", "doc_id", docID, "count", len(chunks))
	return chunks
}

// Save persists chunks and their embeddings as a paired artefact, writing
// each through a temp file in the cache directory before an atomic rename.
func (m *Manager) Save(docID string, chunks []models.Chunk) error {
	matrix := make([][]float32, len(chunks))
	for i, c := range chunks {
		matrix[i] = c.Vector
	}

	if err := m.atomicWriteJSON(m.chunkPath(docID), chunks); err != nil {
		return fmt.Errorf("cache: save chunks for %s: %w", docID, err)
	}
	if err := m.atomicWriteNPY(m.embeddingPath(docID), matrix); err != nil {
		return fmt.Errorf("cache: save embeddings for %s: %w", docID, err)
	}
	logger.Info("cache: saved chunks to disk", "doc_id", docID, "count", len(chunks))
	return nil
}

func (m *Manager) atomicWriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	compressed, err := utils.CompressData(data, utils.CompressionGzip)
	if err != nil {
		return err
	}
	tempPath := filepath.Join(m.dir, uuid.NewString()+".tmp")
	if err := os.WriteFile(tempPath, compressed, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

func (m *Manager) atomicWriteNPY(path string, matrix [][]float32) error {
	tempPath := filepath.Join(m.dir, uuid.NewString()+".tmp")
	if err := writeNPY(tempPath, matrix); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}

// CleanStale deletes every cache file in the directory whose name doesn't
// carry the current cache version, freeing artefacts from a retired
// embedding model or chunking geometry.
func (m *Manager) CleanStale() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: read dir %s: %w", m.dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json.gz") && !strings.HasSuffix(name, ".npy") {
			continue
		}
		if strings.Contains(name, m.version) {
			continue
		}
		path := filepath.Join(m.dir, name)
		if err := os.Remove(path); err != nil {
			logger.Warn("cache: failed to remove stale cache file", "path", path, "error", err)
			continue
		}
		logger.Info("cache: removed stale cache file", "path", path)
	}
	return nil
}
