package rerank

import (
	"context"
	"sort"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// maxLLMCandidateTextChars is the LLM reranker's own truncation length,
// distinct from the cross-encoder's 512-char limit: the LLM prompt carries
// every candidate at once, so each is kept shorter to bound prompt size.
const maxLLMCandidateTextChars = 400

// defaultRerankCandidates mirrors DEFAULT_RERANK_CANDIDATES: only the top N
// pre-rerank results are sent to the LLM, the rest pass through untouched.
const defaultRerankCandidates = 20

// ScoreFunc scores a batch of candidates against a query via an LLM,
// returning a map of candidate id to relevance score (0-100). It is the
// narrow seam LLMReranker depends on so this package never imports the LLM
// gateway; a caller wires a concrete closure bound to its gateway client.
type ScoreFunc func(ctx context.Context, query string, candidates []LLMCandidate) (map[string]float64, error)

// LLMCandidate is one item offered to the scoring prompt.
type LLMCandidate struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	ContentType string `json:"content_type"`
	ChunkType   string `json:"chunk_type"`
	SourceURL   string `json:"source_url"`
}

// LLMReranker reorders results by an LLM's relevance judgment, grounded on
// rerank_results_with_llm: only the first RerankCandidates results are
// scored, every other result keeps its pre-rerank position appended after
// them, and any scoring failure returns the original order unchanged.
type LLMReranker struct {
	score      ScoreFunc
	candidates int
}

var _ Reranker = (*LLMReranker)(nil)

// NewLLMReranker builds an LLMReranker. candidates <= 0 uses
// defaultRerankCandidates.
func NewLLMReranker(score ScoreFunc, candidates int) *LLMReranker {
	if candidates <= 0 {
		candidates = defaultRerankCandidates
	}
	return &LLMReranker{score: score, candidates: candidates}
}

// Rerank scores up to r.candidates results via the LLM and sorts the full
// input by score, missing ids defaulting to 0 (rerank_results_with_llm's
// score_map.get(id, 0)). On any scoring failure, results are returned
// unchanged in their original order.
func (r *LLMReranker) Rerank(ctx context.Context, query string, results []types.Result, topK int) ([]types.Result, error) {
	if len(results) == 0 || r.score == nil {
		return truncate(results, topK), nil
	}

	limit := r.candidates
	if limit > len(results) {
		limit = len(results)
	}

	candidates := make([]LLMCandidate, limit)
	for i, res := range results[:limit] {
		text := res.Text
		if runes := []rune(text); len(runes) > maxLLMCandidateTextChars {
			text = string(runes[:maxLLMCandidateTextChars])
		}
		candidates[i] = LLMCandidate{
			ID:          res.ChunkID,
			Text:        text,
			ContentType: res.Metadata["content_type"],
			ChunkType:   res.Metadata["chunk_type"],
			SourceURL:   res.Metadata["source_url"],
		}
	}

	scoreMap, err := r.score(ctx, query, candidates)
	if err != nil || len(scoreMap) == 0 {
		return truncate(results, topK), nil
	}

	out := make([]types.Result, len(results))
	copy(out, results)
	for i := range out {
		s, ok := scoreMap[out[i].ChunkID]
		if !ok {
			s = 0
		}
		out[i].Scores.RerankScore = s
		out[i].Scores.UsedScore = "rerank_score"
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scores.RerankScore > out[j].Scores.RerankScore })

	return truncate(out, topK), nil
}
