// Package types holds the data model shared across the retrieval core:
// chunks, scores, company mappings and intent profiles. Every other package
// depends on this one; it depends on nothing in the module.
package types

import "time"

// ContentType is one of the nine content labels, plus the reserved
// "structured" label and the four legacy aliases. See the expansion tables
// in internal/intent for LEGACY_TO_NEW / NEW_TO_LEGACY mapping.
type ContentType string

const (
	ContentTypeNewGradRecruitment ContentType = "new_grad_recruitment"
	ContentTypeMidcareerRecruit   ContentType = "midcareer_recruitment"
	ContentTypeCorporateSite      ContentType = "corporate_site"
	ContentTypeIRMaterials        ContentType = "ir_materials"
	ContentTypeCEOMessage         ContentType = "ceo_message"
	ContentTypeEmployeeInterviews ContentType = "employee_interviews"
	ContentTypePressRelease       ContentType = "press_release"
	ContentTypeCSRSustainability  ContentType = "csr_sustainability"
	ContentTypeMidtermPlan        ContentType = "midterm_plan"

	// ContentTypeStructured marks deadline/documents/application/process
	// chunks extracted from structured sections rather than free text.
	ContentTypeStructured ContentType = "structured"

	// Legacy aliases, accepted on input and expanded bidirectionally.
	ContentTypeLegacyRecruitment    ContentType = "recruitment"
	ContentTypeLegacyCorporateIR    ContentType = "corporate_ir"
	ContentTypeLegacyCorpBusiness   ContentType = "corporate_business"
	ContentTypeLegacyCorpGeneral    ContentType = "corporate_general"
)

// ChunkType distinguishes structured sub-document chunks (deadline, required
// documents, application method, selection process, …) from ordinary
// free-text chunks.
type ChunkType string

const (
	ChunkTypeFullText   ChunkType = "full_text"
	ChunkTypeStructured ChunkType = "structured"
)

// Chunk is a retrievable unit of text belonging to exactly one company.
//
// Invariants (spec §3): a chunk belongs to exactly one company; embeddings
// within one vector-store collection share one model/dimension;
// ContentType is set at ingest and never mutated in place (re-ingest
// rewrites the chunk via Delete+Add).
type Chunk struct {
	// ID is "<company_id>_<ordinal>", assigned at insert time.
	ID string

	CompanyID   string
	CompanyName string
	SourceURL   string

	ChunkType   ChunkType
	ContentType ContentType
	// SecondaryContentTypes holds additional applicable labels when the
	// classifier matched more than one content type's keywords but an LLM
	// or ambiguity rule resolved a single primary label.
	SecondaryContentTypes []ContentType

	HeadingPath  string
	HeadingLevel int
	ChunkIndex   int
	SectionIndex int

	Text      string
	Embedding []float32

	// Metadata holds additional scalar fields from the ingest pipeline.
	// Complex (non-scalar) values must be dropped before this is populated;
	// see internal/vectorstore.FilterScalarMetadata.
	Metadata map[string]string

	CreatedAt time.Time
}

// Scores is the additive "bag of scores" a Result accumulates as it passes
// through the retrieval pipeline. At least one field is populated by the
// time a Result is returned; UsedScore documents which one determined the
// final ordering (spec §3).
type Scores struct {
	RRFScore        float64
	SemanticScore   float64
	KeywordScore    float64
	HybridScore     float64
	ContentTypeBoost float64
	BoostedScore    float64
	RerankScore     float64

	// UsedScore names the field that determined final order, e.g.
	// "rerank_score", "boosted_score", "hybrid_score", "rrf_score".
	UsedScore string
}

// Result is a single ranked candidate returned from retrieval.
type Result struct {
	ChunkID  string
	Text     string
	Metadata map[string]string
	Scores   Scores

	// DenseRank is the candidate's rank in the pre-MMR RRF-fused dense list,
	// used as a deterministic tertiary tie-break (spec §4.9 step 10).
	DenseRank int
}

// CompanyEntry is one entry of the process-loaded company mapping (spec §3).
type CompanyEntry struct {
	Name string

	// Domains is the ordered list of domain patterns claimed by this
	// company (e.g. "mitsui", "career-mc.mitsubishicorp", "bk.mufg").
	Domains []string

	// Parent is the canonical name of the parent company, if any.
	Parent string

	// AllowParentDomainsFor lists the content types for which the parent's
	// domain is also considered an acceptable source for this company.
	AllowParentDomainsFor []ContentType
}

// CompanyMapping is the full process-loaded registry state (spec §3, §6).
type CompanyMapping struct {
	// Entries is keyed by canonical company name.
	Entries map[string]CompanyEntry

	// ShortDomainAllowlist authorizes patterns under three characters that
	// would otherwise be globally rejected, keyed by company name.
	ShortDomainAllowlist map[string][]string
}

// IntentProfile is the per-content-type keyword/URL/exclude vocabulary
// (spec §3, §4.6). It is the single source of truth consumed by the
// classifier (C5), the web search scorer (C7), and boost-profile
// selection (C9's intent router).
type IntentProfile struct {
	ContentType     ContentType
	StrongKeywords  []string
	WeakKeywords    []string
	URLPatterns     []string
	ExcludeKeywords []string
}

// SearchOptions carries the optional per-call knobs described in spec §4.9
// and §6. Zero values mean "use the orchestrator's configured default".
type SearchOptions struct {
	ContentTypes    []ContentType
	ExpandQueries   *bool
	UseHyDE         *bool
	Rerank          *bool
	UseMMR          *bool
	SemanticWeight  float64
	KeywordWeight   float64
	RerankThreshold float64
	UseBM25         *bool
	FetchK          int
	MaxQueries      int
	MaxTotalQueries int
	MMRLambda       float64
}
