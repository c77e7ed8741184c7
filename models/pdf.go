package models

import (
	"strings"
	"time"
)

// Document represents one PDF tracked by the sidecar: its identity (derived
// from the content hash, not the filename), and the pages parsed out of it.
type Document struct {
	ID         string    `json:"doc_id"` // first 8 bytes of the file's sha256, hex-encoded
	DocName    string    `json:"doc_name"`
	Path       string    `json:"path"`
	Pages      []Page    `json:"-"`
	NumPages   int       `json:"num_pages"`
	IngestedAt time.Time `json:"ingested_at"`
	FromCache  bool      `json:"from_cache"`
}

// Page is one page of parsed PDF text together with the section/subsection
// heading detected for it.
type Page struct {
	PageNum    int    `json:"page"`
	Text       string `json:"-"`
	Section    string `json:"section"`
	Subheading string `json:"subheading,omitempty"`
}

// Title composes the page's section and subsection into the single string
// stored on its chunks, e.g. "Section 6: Checking in Voters > Voter ID".
func (p Page) Title() string {
	if p.Subheading == "" {
		return p.Section
	}
	return p.Section + " > " + p.Subheading
}

// Chunk is a sliding-window slice of a page's text, enriched with a
// deterministic facts line and an optional embedding vector.
type Chunk struct {
	ChunkID           string    `json:"chunk_id"`
	DocID             string    `json:"doc_id"`
	DocName           string    `json:"doc_name"`
	Page              int       `json:"page"`
	Section           string    `json:"section"`
	Subheading        string    `json:"subheading,omitempty"`
	RawContent        string    `json:"raw_content"`
	ContextualContent string    `json:"contextual_content"`
	WordCount         int       `json:"word_count"`
	Vector            []float32 `json:"-"`
}

// ChunkingConfig defines how text should be chunked.
type ChunkingConfig struct {
	Width    int `json:"width"`
	Overlap  int `json:"overlap"`
	MinWords int `json:"min_words"`
}

// Document processing status constants. No endpoint in this repository
// reports them.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DeriveDocName turns a PDF filename into a human-presentable document name,
// replacing underscores and hyphens with spaces and title-casing each word,
// matching the original ingester's
// `stem.replace("_", " ").replace("-", " ").title()`.
func DeriveDocName(filename string) string {
	stem := strings.TrimSuffix(filename, ".pdf")
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	words := strings.Fields(stem)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
			for j := 1; j < len(r); j++ {
				r[j] = []rune(strings.ToLower(string(r[j])))[0]
			}
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
