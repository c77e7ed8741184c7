// Package llm wraps the optional generative collaborator: query expansion
// and result reranking the retrieval engine can call out to when an LLM is
// configured, guarded by a circuit breaker and rate limiter the way the
// teacher's GeminiClient guards its own calls. Both features ship disabled
// by default — the engine is a complete hybrid retriever without them. They
// are switched on by setting ExpansionEnabled/RerankEnabled on a
// Collaborator; no config key sets them, and the retrieval pipeline does not
// call ExpandQuery or Rerank.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/civiq/rag-sidecar/internal/logger"
	"github.com/civiq/rag-sidecar/models"
)

const (
	// rerankTopIn is how many fused candidates are offered to the reranker.
	rerankTopIn = 15
	// rerankTopOut is how many of the rescored candidates Rerank keeps.
	rerankTopOut = 8
	// neutralRerankScore pads any candidate the model's response didn't
	// score, so it sorts into the middle of the pack rather than the ends.
	neutralRerankScore = 5
)

var scoreDigitsRE = regexp.MustCompile(`\d+`)

// Collaborator is the optional LLM-backed extension point. ExpansionEnabled
// and RerankEnabled are both false by default; Collaborator still accepts
// calls in that state, it just returns its input unchanged.
type Collaborator struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter

	ExpansionEnabled bool
	RerankEnabled    bool

	healthTTL time.Duration
	healthTO  time.Duration

	mu           sync.Mutex
	healthCache  bool
	healthCached time.Time

	rerankMu    sync.Mutex
	rerankCache map[string][]models.ChunkResult
}

// New builds a Collaborator. Both extension points start disabled; callers
// flip ExpansionEnabled/RerankEnabled explicitly once the feature is ready
// to serve traffic.
func New(ctx context.Context, apiKey, model string, healthcheckTimeoutMS, healthcheckTTLSeconds int) (*Collaborator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: new client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-collaborator",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm: circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Collaborator{
		client:      client,
		model:       model,
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Limit(2), 4),
		healthTTL:   time.Duration(healthcheckTTLSeconds) * time.Second,
		healthTO:    time.Duration(healthcheckTimeoutMS) * time.Millisecond,
		rerankCache: make(map[string][]models.ChunkResult),
	}, nil
}

// ExpandQuery returns an expanded form of the query for retrieval to embed
// and search with. Disabled by default, in which case it is the identity
// function.
func (c *Collaborator) ExpandQuery(ctx context.Context, query string) (string, error) {
	if !c.ExpansionEnabled {
		return query, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return query, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.model)
		model.SetTemperature(0.2)
		prompt := fmt.Sprintf("Rewrite this search query to include likely synonyms, keeping it concise:\n%s", query)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return textFromResponse(resp), nil
	})
	if err != nil {
		logger.Warn("llm: query expansion failed, falling back to original query", "error", err)
		return query, nil
	}
	expanded, _ := result.(string)
	if strings.TrimSpace(expanded) == "" {
		return query, nil
	}
	return expanded, nil
}

// Rerank asks the collaborator to reorder and trim a fused result set.
// Disabled by default, in which case it returns candidates unchanged. When
// enabled, it offers only the top rerankTopIn candidates, asks the model to
// score each one, parses a score out of each line of its response with a
// digit regex, pads any candidate the response didn't mention with a
// neutral score so dropped candidates still have a stable position, and
// keeps the rerankTopOut highest-scored.
// Responses are cached by lowercased query text.
func (c *Collaborator) Rerank(ctx context.Context, query string, candidates []models.ChunkResult) ([]models.ChunkResult, error) {
	if !c.RerankEnabled || len(candidates) == 0 {
		return candidates, nil
	}

	key := strings.ToLower(strings.TrimSpace(query))
	c.rerankMu.Lock()
	if cached, ok := c.rerankCache[key]; ok {
		c.rerankMu.Unlock()
		return cached, nil
	}
	c.rerankMu.Unlock()

	in := candidates
	if len(in) > rerankTopIn {
		in = in[:rerankTopIn]
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return candidates, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.model)
		model.SetTemperature(0.0)
		prompt := buildRerankPrompt(query, in)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return textFromResponse(resp), nil
	})
	if err != nil {
		logger.Warn("llm: rerank failed, returning fused order", "error", err)
		return candidates, nil
	}

	text, _ := result.(string)
	scores := parseRerankScores(text, len(in))
	reranked := applyRerankScores(in, scores)
	if len(reranked) > rerankTopOut {
		reranked = reranked[:rerankTopOut]
	}

	c.rerankMu.Lock()
	c.rerankCache[key] = reranked
	c.rerankMu.Unlock()

	return reranked, nil
}

// Healthy reports whether the collaborator's model can be reached, probing
// at most once per healthTTL and bounding the probe itself by healthTO.
func (c *Collaborator) Healthy(ctx context.Context) bool {
	c.mu.Lock()
	if time.Since(c.healthCached) < c.healthTTL && !c.healthCached.IsZero() {
		ok := c.healthCache
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, c.healthTO)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	_, err := model.GenerateContent(probeCtx, genai.Text("ping"))
	healthy := err == nil

	c.mu.Lock()
	c.healthCache = healthy
	c.healthCached = time.Now()
	c.mu.Unlock()

	return healthy
}

const rerankPassageMaxChars = 400

func buildRerankPrompt(query string, candidates []models.ChunkResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nScore each passage's relevance from 0-10, one line per passage as \"N: <score>\":\n\n", query)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d: %s\n\n", i+1, truncatePassage(c.Content, rerankPassageMaxChars))
	}
	return b.String()
}

func truncatePassage(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}

// parseRerankScores reads the first two integers of each line of the
// model's response as a 1-based passage number and its score, padding any
// unmentioned candidate with the neutral score.
func parseRerankScores(text string, n int) []int {
	scores := make([]int, n)
	for i := range scores {
		scores[i] = neutralRerankScore
	}
	for _, line := range strings.Split(text, "\n") {
		nums := scoreDigitsRE.FindAllString(line, -1)
		if len(nums) < 2 {
			continue
		}
		idx, err1 := strconv.Atoi(nums[0])
		score, err2 := strconv.Atoi(nums[1])
		if err1 != nil || err2 != nil {
			continue
		}
		if idx >= 1 && idx <= n {
			scores[idx-1] = score
		}
	}
	return scores
}

func applyRerankScores(candidates []models.ChunkResult, scores []int) []models.ChunkResult {
	type scored struct {
		c models.ChunkResult
		s int
	}
	pairs := make([]scored, len(candidates))
	for i, c := range candidates {
		pairs[i] = scored{c: c, s: scores[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	out := make([]models.ChunkResult, len(pairs))
	for i, p := range pairs {
		out[i] = p.c
	}
	return out
}

func textFromResponse(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

// Close releases the underlying client.
func (c *Collaborator) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
