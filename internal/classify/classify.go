package classify

import (
	"context"
	"log/slog"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// LLMClassifyFunc resolves one ambiguous chunk to a content type via the
// LLM gateway (C11). Implementations are expected to constrain the model's
// output to the nine labels and retry once on parse failure, returning an
// error only once every attempt has been exhausted.
type LLMClassifyFunc func(ctx context.Context, input ChunkInput) (types.ContentType, error)

// ChunkClassifier labels chunks with one of the nine content types,
// trying keyword/URL rules first and an LLM only for what the rules leave
// ambiguous.
type ChunkClassifier struct {
	llm LLMClassifyFunc
}

// NewChunkClassifier creates a classifier. llm may be nil, in which case
// ambiguous chunks fall back to sourceChannel/fallbackType/corporate_site
// without ever calling an LLM.
func NewChunkClassifier(llm LLMClassifyFunc) *ChunkClassifier {
	return &ChunkClassifier{llm: llm}
}

// ClassifyOne labels a single chunk (spec §4.5's full algorithm for one
// chunk, without the batch memoization ClassifyChunks adds).
func (c *ChunkClassifier) ClassifyOne(ctx context.Context, input ChunkInput, sourceChannel, fallbackType types.ContentType) types.ContentType {
	if ct, ok := classifyRule(input, sourceChannel); ok {
		return ct
	}

	if c.llm != nil {
		if ct, err := c.llm(ctx, input); err == nil && ct != "" {
			return ct
		} else if err != nil {
			slog.Warn("llm chunk classification failed, using fallback", "error", err)
		}
	}

	switch {
	case sourceChannel != "":
		return sourceChannel
	case fallbackType != "":
		return fallbackType
	default:
		return types.ContentTypeCorporateSite
	}
}

// ClassifyChunks labels a batch of chunks, memoizing LLM calls within the
// batch by source_url|heading|text[:80] to amortize LLM cost across
// near-duplicate chunks from the same page (spec §4.5).
func (c *ChunkClassifier) ClassifyChunks(ctx context.Context, inputs []ChunkInput, sourceChannel, fallbackType types.ContentType) []types.ContentType {
	cache := make(map[string]types.ContentType)
	results := make([]types.ContentType, len(inputs))

	for i, input := range inputs {
		if ct, ok := classifyRule(input, sourceChannel); ok {
			results[i] = ct
			continue
		}

		key := input.memoKey()
		if cached, found := cache[key]; found {
			results[i] = cached
			continue
		}

		ct := c.ClassifyOne(ctx, input, sourceChannel, fallbackType)
		cache[key] = ct
		results[i] = ct
	}
	return results
}
