// Package retrieval implements the hybrid retrieval orchestrator (C9):
// DenseHybridSearch fans a query out across expansion variants and HyDE,
// searches dense and keyword indices concurrently, fuses with RRF, applies
// MMR diversification and content-type boosting, and gates an optional
// rerank pass behind a confidence check.
package retrieval

import "github.com/saoki0913/career-compass-retrieval/pkg/types"

// Config mirrors dense_hybrid_search's keyword defaults (spec §4.9).
type Config struct {
	ExpandQueries    bool
	UseHyDE          bool
	Rerank           bool
	UseMMR           bool
	SemanticWeight   float64
	KeywordWeight    float64
	RerankThreshold  float64
	UseBM25          bool
	FetchK           int
	MaxQueries       int
	MaxTotalQueries  int
	MMRLambda        float64
	RerankCandidates int
}

// DefaultConfig returns dense_hybrid_search's literal defaults.
func DefaultConfig() Config {
	return Config{
		ExpandQueries:    true,
		UseHyDE:          true,
		Rerank:           true,
		UseMMR:           true,
		SemanticWeight:   0.6,
		KeywordWeight:    0.4,
		RerankThreshold:  0.7,
		UseBM25:          true,
		FetchK:           30,
		MaxQueries:       3,
		MaxTotalQueries:  4,
		MMRLambda:        0.5,
		RerankCandidates: 20,
	}
}

// Request is one DenseHybridSearch call's parameters, with nil pointer
// fields meaning "use the Config/default value".
type Request struct {
	CompanyID    string
	Query        string
	NResults     int
	ContentTypes []types.ContentType

	ExpandQueries *bool
	UseHyDE       *bool
	Rerank        *bool
	UseMMR        *bool
	UseBM25       *bool

	SemanticWeight  *float64
	KeywordWeight   *float64
	RerankThreshold *float64
	FetchK          *int
	MaxQueries      *int
	MaxTotalQueries *int
	MMRLambda       *float64

	// ContentTypeBoosts overrides the intent-classified boost profile, e.g.
	// for callers that already know the query's intent.
	ContentTypeBoosts map[types.ContentType]float64
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// resolve merges a Request's overrides onto Config, producing the
// effective run parameters for one search (spec §4.9 step 1).
func (c Config) resolve(req Request) Config {
	out := c
	out.ExpandQueries = boolOr(req.ExpandQueries, c.ExpandQueries)
	out.UseHyDE = boolOr(req.UseHyDE, c.UseHyDE)
	out.Rerank = boolOr(req.Rerank, c.Rerank)
	out.UseMMR = boolOr(req.UseMMR, c.UseMMR)
	out.UseBM25 = boolOr(req.UseBM25, c.UseBM25)
	out.SemanticWeight = floatOr(req.SemanticWeight, c.SemanticWeight)
	out.KeywordWeight = floatOr(req.KeywordWeight, c.KeywordWeight)
	out.RerankThreshold = floatOr(req.RerankThreshold, c.RerankThreshold)
	out.FetchK = intOr(req.FetchK, c.FetchK)
	out.MaxQueries = intOr(req.MaxQueries, c.MaxQueries)
	out.MaxTotalQueries = intOr(req.MaxTotalQueries, c.MaxTotalQueries)
	out.MMRLambda = floatOr(req.MMRLambda, c.MMRLambda)

	total := out.SemanticWeight + out.KeywordWeight
	if total > 0 {
		out.SemanticWeight /= total
		out.KeywordWeight /= total
	}
	return out
}

// candidate is the orchestrator's internal working representation of one
// chunk across the fusion pipeline, carrying the embedding needed for MMR
// and the dense rank used as the final tie-break.
type candidate struct {
	id        string
	text      string
	metadata  map[string]string
	embedding []float32
	denseRank int
	scores    types.Scores
}

func (c *candidate) toResult() types.Result {
	return types.Result{
		ChunkID:   c.id,
		Text:      c.text,
		Metadata:  c.metadata,
		Scores:    c.scores,
		DenseRank: c.denseRank,
	}
}
