package retrieval

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/saoki0913/career-compass-retrieval/internal/expand"
	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// DenseHit is one per-query dense search result, company-scoped and
// ordered by ascending distance by the underlying store.
type DenseHit struct {
	ID        string
	Text      string
	Metadata  map[string]string
	Embedding []float32
}

// DenseSearcher is the narrow surface of internal/vectorstore.CompanyStore
// the orchestrator needs, letting tests supply a fake store.
type DenseSearcher interface {
	SearchCompanyContextByType(ctx context.Context, companyID, query string, nResults int, contentTypes []types.ContentType, includeEmbeddings bool) ([]*DenseHit, error)
}

// KeywordHit is one BM25 search result.
type KeywordHit struct {
	ID    string
	Score float64
}

// KeywordSearcher is the narrow surface of internal/keywordindex.CompanyIndex
// the orchestrator needs.
type KeywordSearcher interface {
	Search(ctx context.Context, companyID, query string, k int, contentTypes []types.ContentType) ([]KeywordHit, error)
}

// Embedder generates a single embedding, used only to embed the original
// query for the MMR step (spec §4.9 step 6): the per-query dense searches
// embed their own queries internally, but MMR needs the *original* query's
// vector regardless of which variant a candidate was found through.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker is C10's shared interface (cross-encoder and LLM backends),
// declared here so the orchestrator doesn't import internal/rerank
// directly and can be exercised with a fake in tests.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []types.Result, topK int) ([]types.Result, error)
}

// Orchestrator implements DenseHybridSearch (C9), composing the keyword
// index (C3), vector store (C4), intent boost table (C6), query expander
// (C8) and an optional reranker (C10).
type Orchestrator struct {
	dense    DenseSearcher
	keyword  KeywordSearcher
	embedder Embedder
	expander *expand.Expander
	reranker Reranker
	cfg      Config
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithConfig overrides the default dense_hybrid_search parameters.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithReranker enables the optional rerank gate (spec §4.9 step 9). Without
// one, the rerank step is skipped and shouldRerank is not evaluated.
func WithReranker(r Reranker) Option {
	return func(o *Orchestrator) { o.reranker = r }
}

// New builds an Orchestrator. dense and embedder are required; a nil
// keyword searcher skips BM25, and a nil expander degrades gracefully to single-query search
// (mirroring expand.Expander's own nil-func degradation).
func New(dense DenseSearcher, keyword KeywordSearcher, embedder Embedder, expander *expand.Expander, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dense:    dense,
		keyword:  keyword,
		embedder: embedder,
		expander: expander,
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DenseHybridSearch runs the full ten-step pipeline of spec §4.9 for one
// query against one company's indices.
func (o *Orchestrator) DenseHybridSearch(ctx context.Context, req Request) ([]types.Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, nil
	}

	nResults := req.NResults
	if nResults <= 0 {
		nResults = 10
	}

	cfg := o.cfg.resolve(req)

	// Step 2: build the query set (original + expansion + HyDE).
	queries := []string{query}
	if o.expander != nil {
		res, err := o.expander.Expand(ctx, query, cfg.ExpandQueries, cfg.UseHyDE)
		if err == nil && len(res.Queries) > 0 {
			queries = res.Queries
		}
	}
	if len(queries) > cfg.MaxTotalQueries {
		queries = queries[:cfg.MaxTotalQueries]
	}

	fetchK := cfg.FetchK
	if threeN := nResults * 3; threeN > fetchK {
		fetchK = threeN
	}
	bm25K := fetchK

	// Step 4 fires concurrently with step 3; both run under one errgroup so
	// a BM25 failure never blocks dense results (non-fatal degradation).
	var keywordHits []KeywordHit
	g, gctx := errgroup.WithContext(ctx)

	runBM25 := cfg.UseBM25 && cfg.KeywordWeight > 0 && o.keyword != nil
	if runBM25 {
		g.Go(func() error {
			hits, err := o.keyword.Search(gctx, req.CompanyID, query, bm25K, req.ContentTypes)
			if err != nil {
				// Non-fatal: BM25 degrades to "no keyword signal" rather
				// than failing the whole search.
				return nil
			}
			keywordHits = hits
			return nil
		})
	}

	// Step 3: dense fan-out, one search per query in the set.
	perQueryLists := make([][]*candidate, len(queries))
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			hits, err := o.dense.SearchCompanyContextByType(gctx, req.CompanyID, q, fetchK, req.ContentTypes, cfg.UseMMR)
			if err != nil {
				// Non-fatal: one failing variant still lets the others
				// contribute to the fused result.
				return nil
			}
			list := make([]*candidate, 0, len(hits))
			for _, h := range hits {
				list = append(list, &candidate{
					id:        h.ID,
					text:      h.Text,
					metadata:  h.Metadata,
					embedding: h.Embedding,
				})
			}
			perQueryLists[i] = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	nonEmptyLists := make([][]*candidate, 0, len(perQueryLists))
	for _, l := range perQueryLists {
		if len(l) > 0 {
			nonEmptyLists = append(nonEmptyLists, l)
		}
	}
	if len(nonEmptyLists) == 0 {
		return nil, nil
	}

	// Step 5: RRF merge across dense lists.
	rrfK := adaptiveRRFK(len(nonEmptyLists))
	merged := rrfMerge(rrfK, nonEmptyLists)

	// Step 6: MMR, or a plain slice when embeddings aren't usable.
	var mmrd []*candidate
	if cfg.UseMMR {
		queryEmbedding, err := o.embedder.Embed(ctx, query)
		if err != nil || len(queryEmbedding) == 0 {
			mmrd = sliceCandidates(merged, nResults)
		} else {
			mmrd = applyMMR(merged, queryEmbedding, nResults, cfg.MMRLambda)
		}
	} else {
		mmrd = sliceCandidates(merged, nResults)
	}

	// Step 7: hybrid merge with BM25, if it returned anything.
	result := mergeWithKeyword(mmrd, toKeywordHitSlice(keywordHits), cfg.SemanticWeight, cfg.KeywordWeight)

	// Step 8: content-type boost.
	profile := req.ContentTypeBoosts
	var boostProfile intent.BoostProfile
	if profile != nil {
		boostProfile = profile
	} else {
		boostProfile = intent.SelectBoostProfile(query)
	}
	result = applyContentTypeBoost(result, boostProfile, secondaryTypesOf)

	// Step 9: rerank gate.
	if cfg.Rerank && o.reranker != nil && shouldRerank(result, cfg.RerankThreshold) {
		candidatesForRerank := result
		if len(candidatesForRerank) > cfg.RerankCandidates {
			candidatesForRerank = candidatesForRerank[:cfg.RerankCandidates]
		}
		asResults := make([]types.Result, len(candidatesForRerank))
		for i, c := range candidatesForRerank {
			asResults[i] = c.toResult()
		}
		reranked, err := o.reranker.Rerank(ctx, query, asResults, cfg.RerankCandidates)
		if err == nil && len(reranked) > 0 {
			return truncateResults(reranked, nResults), nil
		}
		// Non-fatal: rerank failure falls through to the pre-rerank order.
	}

	finalSort(result)

	// Step 10: top n_results.
	out := make([]types.Result, 0, nResults)
	for i, c := range result {
		if i >= nResults {
			break
		}
		out = append(out, c.toResult())
	}
	return out, nil
}

func sliceCandidates(candidates []*candidate, n int) []*candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}

func toKeywordHitSlice(hits []KeywordHit) []keywordHit {
	out := make([]keywordHit, len(hits))
	for i, h := range hits {
		out[i] = keywordHit{id: h.ID, score: h.Score}
	}
	return out
}

// secondaryTypesOf reads the comma-separated secondary_content_types
// metadata field persisted by the vector store at ingest time.
func secondaryTypesOf(c *candidate) []types.ContentType {
	raw := c.metadata["secondary_content_types"]
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]types.ContentType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, types.ContentType(p))
		}
	}
	return out
}

func truncateResults(results []types.Result, n int) []types.Result {
	if len(results) > n {
		return results[:n]
	}
	return results
}
