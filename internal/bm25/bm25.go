// Package bm25 is a hand-rolled Okapi BM25 index, grounded on the
// bm25Index found in the pack's hybrid retrieval engine, but keyed
// directly by caller-supplied document id rather than by indexing
// document text — this sidesteps the text→id reverse-lookup collision
// the specification's open questions flag, by ranking over ids directly.
package bm25

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const (
	k1 = 1.6
	b  = 0.75
)

var tokenRE = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

// englishStopwords is the standard BM25 stop-word list applied to both
// indexed documents and queries, matching bm25s's default "en" list scope
// (the common function words that carry no discriminative weight).
var englishStopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(
		`a about above after again against all am an and any are aren't as at be because been before ` +
			`being below between both but by can't cannot could couldn't did didn't do does doesn't doing ` +
			`don't down during each few for from further had hadn't has hasn't have haven't having he he'd ` +
			`he'll he's her here here's hers herself him himself his how how's i i'd i'll i'm i've if in into ` +
			`is isn't it it's its itself let's me more most mustn't my myself no nor not of off on once only ` +
			`or other ought our ours ourselves out over own same shan't she she'd she'll she's should ` +
			`shouldn't so some such than that that's the their theirs them themselves then there there's ` +
			`these they they'd they'll they're they've this those through to too under until up very was ` +
			`wasn't we we'd we'll we're we've were weren't what what's when when's where where's which while ` +
			`who who's whom why why's with won't would wouldn't you you'd you'll you're you've your yours ` +
			`yourself yourselves`) {
		englishStopwords[w] = true
	}
}

// Tokenize lowercases and splits text into letter/number runs, dropping
// English stop-words, matching the corpus's own tokenizer shape.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenRE.FindAllString(lower, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if !englishStopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// Result is one scored document from a BM25 search.
type Result struct {
	ID    string
	Score float64
}

// Index is an Okapi BM25 index over documents identified by an opaque id.
type Index struct {
	mu          sync.RWMutex
	docFreq     map[string]int
	postings    map[string]map[string]int
	docLength   map[string]int
	totalLength int
	docCount    int
}

func New() *Index {
	return &Index{
		docFreq:   make(map[string]int),
		postings:  make(map[string]map[string]int),
		docLength: make(map[string]int),
	}
}

// Add indexes one document's text under id. Ids must be unique; adding the
// same id twice double-counts it.
func (idx *Index) Add(id, text string) {
	terms := Tokenize(text)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docCount++
	idx.docLength[id] = len(terms)
	idx.totalLength += len(terms)

	seen := map[string]bool{}
	for _, term := range terms {
		if idx.postings[term] == nil {
			idx.postings[term] = make(map[string]int)
		}
		idx.postings[term][id]++
		if !seen[term] {
			idx.docFreq[term]++
			seen[term] = true
		}
	}
}

// Search scores every document containing any query term and returns all of
// them ranked descending — callers that need only the top results should
// slice the return value. Returning the full scored set (rather than a
// capped top-k) matches the specification's retrieve(k=len(chunks)) call.
func (idx *Index) Search(query string) []Result {
	terms := uniqueTokens(Tokenize(query))
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.docCount == 0 {
		return nil
	}

	avgLen := float64(idx.totalLength) / float64(idx.docCount)
	scores := make(map[string]float64)
	for _, term := range terms {
		postings := idx.postings[term]
		if len(postings) == 0 {
			continue
		}
		df := idx.docFreq[term]
		idf := math.Log((float64(idx.docCount)-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for id, tf := range postings {
			docLen := float64(idx.docLength[id])
			numerator := float64(tf) * (k1 + 1)
			denominator := float64(tf) + k1*(1-b+b*(docLen/avgLen))
			scores[id] += idf * (numerator / denominator)
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
