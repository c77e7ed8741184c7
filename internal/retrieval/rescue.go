package retrieval

import (
	"regexp"
	"strings"
)

// keywordStopwords is the fixed 115-word stop set used only by keyword
// rescue (distinct from the BM25 tokenizer's stop-word list): short common
// words that would otherwise make nearly every chunk look like a keyword
// match.
var keywordStopwords = mustSet(
	"the", "and", "for", "are", "was", "how", "what", "when", "where", "who",
	"does", "can", "they", "their", "this", "that", "with", "from", "have",
	"been", "will", "would", "should", "could", "about", "into", "than",
	"also", "just", "very", "much", "some", "any", "all", "each",
	"which", "there", "these", "those", "other", "your", "after", "before",
	"between", "during", "through", "above", "below", "out", "off", "over",
	"under", "again", "further", "then", "once", "here", "why", "both", "few",
	"more", "most", "such", "only", "same", "too", "but", "not", "own", "its",
	"our", "you", "has", "had", "did", "get", "got", "let", "may", "use", "way",
	"try", "ask", "put", "say", "take", "come", "make", "like", "know", "see",
	"think", "want", "give", "tell", "call", "keep", "show", "turn", "move",
	"need", "still", "might", "must", "shall", "upon", "onto", "within", "without",
	"along", "since", "until", "while", "whom", "whose",
)

func mustSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

var (
	distinctiveTokenRE = regexp.MustCompile(`[a-z0-9]+(?:['.-][a-z0-9]+)*`)
	rescuePhoneRE      = regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-\s]?\d{4}`)
	allCapsTermRE      = regexp.MustCompile(`\b[A-Z]{2,}(?:\s+[A-Z][a-z]+)*\b`)
)

// distinctiveTokens extracts query tokens of 3+ characters that aren't in
// the keyword-rescue stop set.
func distinctiveTokens(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, w := range distinctiveTokenRE.FindAllString(lower, -1) {
		if len(w) >= 3 && !keywordStopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// highValueTerms extracts phone numbers and all-caps identifiers from the
// original-case query. An all-caps term only counts as high value if it
// appears in fewer than capsRarity of the corpus's chunks — this is the
// rarity check the specification's open questions call for, preventing a
// report title repeated on every page from triggering rescue on every
// query.
func highValueTerms(query string, ci *ChunkIndex, capsRarity float64) []string {
	terms := rescuePhoneRE.FindAllString(query, -1)
	caps := allCapsTermRE.FindAllString(query, -1)
	if len(caps) == 0 || ci == nil || len(ci.Chunks) == 0 {
		return append(terms, caps...)
	}

	total := float64(len(ci.Chunks))
	for _, term := range caps {
		count := 0
		for i := range ci.Chunks {
			if strings.Contains(ci.Chunks[i].RawContent, term) {
				count++
			}
		}
		if float64(count)/total < capsRarity {
			terms = append(terms, term)
		}
	}
	return terms
}

// keywordRescue walks candidate chunks in descending fused-score order and
// promotes up to k whose content contains a high-value pattern or enough
// distinctive query tokens, skipping ids already present in the results.
func keywordRescue(query string, ci *ChunkIndex, fused map[string]float64, sortedIDs []string,
	already map[string]bool, k int, capsRarity float64) []string {

	tokens := distinctiveTokens(query)
	terms := highValueTerms(query, ci, capsRarity)
	minMatches := max(2, len(tokens)/2)

	var rescued []string
	for _, id := range sortedIDs {
		if len(rescued) >= k {
			break
		}
		if already[id] {
			continue
		}
		chunk, ok := ci.Chunk(id)
		if !ok {
			continue
		}
		combined := strings.ToLower(chunk.RawContent + " " + chunk.ContextualContent)

		matched := false
		for _, term := range terms {
			if strings.Contains(combined, strings.ToLower(term)) {
				matched = true
				break
			}
		}
		if !matched {
			count := 0
			for _, t := range tokens {
				if strings.Contains(combined, t) {
					count++
				}
			}
			matched = count >= minMatches
		}
		if matched {
			rescued = append(rescued, id)
		}
	}
	return rescued
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
