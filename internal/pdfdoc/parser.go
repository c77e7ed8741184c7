// Package pdfdoc turns a PDF file into an ordered sequence of Page records
// with section/subsection titles inferred and boilerplate stripped, the way
// the original ingester's parse_pdf did it.
package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/civiq/rag-sidecar/internal/hashing"
	"github.com/civiq/rag-sidecar/internal/logger"
	"github.com/civiq/rag-sidecar/models"
)

const minPageTextChars = 30

// Parse extracts every page of the PDF at path into a Document, inferring
// section headings as it goes. The active section carries forward across
// pages; a new section resets the active subsection.
func Parse(path string) (*models.Document, error) {
	docID, err := hashing.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: open %s: %w", path, err)
	}
	defer f.Close()

	doc := &models.Document{
		ID:      docID,
		DocName: models.DeriveDocName(lastPathElement(path)),
		Path:    path,
	}

	lastSection := "Introduction"
	lastSubsection := ""

	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		rawText, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("pdfdoc: page extraction failed", "path", path, "page", i, "error", err)
			continue
		}

		flat := strings.Join(strings.Fields(rawText), " ")
		if detected := detectHeading(flat); detected != "" {
			lastSection = detected
			lastSubsection = ""
		}

		for _, line := range firstNonEmptyLines(rawText, 8) {
			if sub := detectSubheading(line); sub != "" {
				lastSubsection = sub
				break
			}
		}

		title := lastSection
		if lastSubsection != "" {
			title = lastSection + " > " + lastSubsection
		}

		text := strings.Join(strings.Fields(stripPageBoilerplate(rawText)), " ")
		if len(strings.TrimSpace(text)) < minPageTextChars {
			continue
		}

		doc.Pages = append(doc.Pages, models.Page{
			PageNum:    i,
			Text:       text,
			Section:    lastSection,
			Subheading: lastSubsection,
		})
	}

	doc.NumPages = len(doc.Pages)
	logger.Info("pdfdoc: parsed document", "doc_id", docID, "path", path, "pages", doc.NumPages)
	return doc, nil
}

func firstNonEmptyLines(text string, n int) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, l)
		if len(out) >= n {
			break
		}
	}
	return out
}

func lastPathElement(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
