package retrieval

import (
	"context"

	"github.com/saoki0913/career-compass-retrieval/internal/keywordindex"
	"github.com/saoki0913/career-compass-retrieval/internal/vectorstore"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// VectorStoreAdapter wraps internal/vectorstore.CompanyStore to satisfy
// DenseSearcher, translating its ContextResult shape into the
// orchestrator's own DenseHit.
type VectorStoreAdapter struct {
	Store *vectorstore.CompanyStore
}

func (a VectorStoreAdapter) SearchCompanyContextByType(ctx context.Context, companyID, query string, nResults int, contentTypes []types.ContentType, includeEmbeddings bool) ([]*DenseHit, error) {
	hits, err := a.Store.SearchCompanyContextByType(ctx, companyID, query, nResults, contentTypes, includeEmbeddings)
	if err != nil {
		return nil, err
	}
	out := make([]*DenseHit, len(hits))
	for i, h := range hits {
		out[i] = &DenseHit{ID: h.ID, Text: h.Text, Metadata: h.Metadata, Embedding: h.Embedding}
	}
	return out, nil
}

// KeywordIndexAdapter wraps internal/keywordindex.CompanyIndexManager to
// satisfy KeywordSearcher, resolving the per-company index lazily on each
// call (mirroring get_or_create_index in the original).
type KeywordIndexAdapter struct {
	Manager *keywordindex.CompanyIndexManager
}

func (a KeywordIndexAdapter) Search(ctx context.Context, companyID, query string, k int, contentTypes []types.ContentType) ([]KeywordHit, error) {
	idx, err := a.Manager.Get(companyID)
	if err != nil {
		return nil, err
	}
	docs, err := idx.Search(ctx, query, k, contentTypes)
	if err != nil {
		return nil, err
	}
	out := make([]KeywordHit, len(docs))
	for i, d := range docs {
		out[i] = KeywordHit{ID: d.DocID, Score: d.Score}
	}
	return out, nil
}

// internal/embed.Embedder already implements the Embedder interface above
// structurally (same Embed(ctx, text) ([]float32, error) method), so no
// adapter is needed there.
//
// internal/rerank.CrossEncoderReranker and internal/rerank.LLMReranker both
// implement Reranker structurally too (same Rerank(ctx, query, results,
// topK) signature), so neither needs a wrapper here either.
