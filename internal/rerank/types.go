// Package rerank implements the cross-encoder and LLM reranker backends
// (C10): two interchangeable ways to reorder a candidate set by relevance
// once the orchestrator's rerank gate (spec §4.9 step 9) decides it's worth
// the cost.
package rerank

import (
	"context"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// Reranker is the shared interface both backends implement; it matches
// internal/retrieval.Reranker structurally so either backend can be wired
// into an Orchestrator without this package importing internal/retrieval.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []types.Result, topK int) ([]types.Result, error)
}

const maxCandidateTextChars = 512
