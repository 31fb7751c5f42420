package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/saoki0913/career-compass-retrieval/internal/classify"
	"github.com/saoki0913/career-compass-retrieval/internal/config"
	"github.com/saoki0913/career-compass-retrieval/internal/embed"
	"github.com/saoki0913/career-compass-retrieval/internal/expand"
	"github.com/saoki0913/career-compass-retrieval/internal/keywordindex"
	"github.com/saoki0913/career-compass-retrieval/internal/llmgateway"
	"github.com/saoki0913/career-compass-retrieval/internal/registry"
	"github.com/saoki0913/career-compass-retrieval/internal/rerank"
	"github.com/saoki0913/career-compass-retrieval/internal/retrieval"
	"github.com/saoki0913/career-compass-retrieval/internal/vectorstore"
)

// stack is the fully wired-together component set one retrievalctl command
// invocation needs: C1 registry, C3/C4 per-company stores, and the
// C5/C8/C9/C11 query pipeline built on top of them.
type stack struct {
	cfg        *config.Config
	dataRoot   string
	registry   *registry.Registry
	embedder   embed.Embedder
	gateway    *llmgateway.Gateway
	classifier *classify.ChunkClassifier
	vector     *vectorstore.CompanyStore
	keywordMgr *keywordindex.CompanyIndexManager
	orch       *retrieval.Orchestrator
}

// buildStack loads cfg's dependencies and wires them into a stack. close
// must be called once the caller is done with it.
func buildStack(ctx context.Context, root string, cfg *config.Config) (st *stack, closeFn func() error, err error) {
	reg, err := registry.New(filepath.Join(root, cfg.Registry.MappingPath), registry.WithWatch(cfg.Registry.Watch))
	if err != nil {
		return nil, nil, fmt.Errorf("load company registry: %w", err)
	}

	provider := embed.ParseProvider(cfg.Store.EmbeddingProvider)
	embedder, err := embed.NewEmbedder(ctx, provider, cfg.Store.EmbeddingModel)
	if err != nil {
		_ = reg.Close()
		return nil, nil, fmt.Errorf("build embedder: %w", err)
	}

	gateway := llmgateway.New(cfg.LLM.ToGatewayConfig())
	classifier := classify.NewChunkClassifier(gateway.Classify())

	vectorCfg := vectorstore.DefaultVectorStoreConfig(cfg.Store.VectorDimensions)
	vectorCfg.Quantization = cfg.Store.VectorQuantization
	vectorCfg.Metric = cfg.Store.VectorMetric
	vectorCfg.M = cfg.Store.VectorM
	vectorCfg.EfConstruction = cfg.Store.VectorEfConstruction
	vectorCfg.EfSearch = cfg.Store.VectorEfSearch
	vecStore, err := vectorstore.NewCompanyStore(embedder, vectorCfg)
	if err != nil {
		_ = reg.Close()
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("open vector store: %w", err)
	}

	dataRoot := filepath.Join(root, cfg.Store.DataRoot)
	bm25Cfg := keywordindex.BM25Config{K1: cfg.Store.BM25K1, B: cfg.Store.BM25B, MinTokenLength: 2}
	keywordMgr := keywordindex.NewCompanyIndexManager(dataRoot, keywordindex.BM25Backend(cfg.Store.BM25Backend), bm25Cfg, nil)

	expander := expand.New(gateway.QueryExpansion(), gateway.HyDE(), expand.WithConfig(expand.Config{
		MaxQueries:          cfg.Retrieval.MaxQueries,
		MaxTotalQueries:     cfg.Retrieval.MaxTotalQueries,
		ShortQueryThreshold: cfg.Retrieval.ShortQueryThreshold,
		ExpansionMinChars:   cfg.Retrieval.ExpansionMinChars,
		ExpansionMaxChars:   cfg.Retrieval.ExpansionMaxChars,
		HydeMaxChars:        cfg.Retrieval.HydeMaxChars,
		CacheSize:           cfg.Retrieval.ExpansionCacheSize,
		CacheTTL:            cfg.Retrieval.ExpansionCacheTTL,
	}))

	reranker := rerank.NewLLMReranker(gateway.Rerank(), cfg.Retrieval.RerankCandidates)

	orch := retrieval.New(
		retrieval.VectorStoreAdapter{Store: vecStore},
		retrieval.KeywordIndexAdapter{Manager: keywordMgr},
		embedder,
		expander,
		retrieval.WithConfig(retrieval.Config{
			ExpandQueries:    cfg.Retrieval.ExpandQueries,
			UseHyDE:          cfg.Retrieval.UseHyDE,
			Rerank:           cfg.Retrieval.Rerank,
			UseMMR:           cfg.Retrieval.UseMMR,
			SemanticWeight:   cfg.Retrieval.SemanticWeight,
			KeywordWeight:    cfg.Retrieval.KeywordWeight,
			RerankThreshold:  cfg.Retrieval.RerankThreshold,
			UseBM25:          cfg.Retrieval.UseBM25,
			FetchK:           cfg.Retrieval.FetchK,
			MaxQueries:       cfg.Retrieval.MaxQueries,
			MaxTotalQueries:  cfg.Retrieval.MaxTotalQueries,
			MMRLambda:        cfg.Retrieval.MMRLambda,
			RerankCandidates: cfg.Retrieval.RerankCandidates,
		}),
		retrieval.WithReranker(reranker),
	)

	st = &stack{
		cfg:        cfg,
		dataRoot:   dataRoot,
		registry:   reg,
		embedder:   embedder,
		gateway:    gateway,
		classifier: classifier,
		vector:     vecStore,
		keywordMgr: keywordMgr,
		orch:       orch,
	}
	closeFn = func() error {
		_ = embedder.Close()
		_ = vecStore.Close()
		_ = keywordMgr.Close()
		return reg.Close()
	}
	return st, closeFn, nil
}

// newRetrievalRequest builds the Request for a plain, unfiltered hybrid
// search over companyID, letting every other field resolve to cfg's
// defaults (resolve in internal/retrieval/types.go).
func newRetrievalRequest(companyID, query string, limit int) retrieval.Request {
	return retrieval.Request{
		CompanyID: companyID,
		Query:     query,
		NResults:  limit,
	}
}
