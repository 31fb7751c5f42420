// Package webscore implements the Domain-Aware Web Search Scorer (C7): it
// scores a web search hit against a target company and desired content
// type, factor by factor, returning nil when the hit should be excluded
// outright.
package webscore

import "github.com/saoki0913/career-compass-retrieval/pkg/types"

// SourceType classifies how a scored URL relates to the target company,
// driving the confidence cap applied last (spec §4.7 "Confidence mapping").
type SourceType string

const (
	SourceOfficial   SourceType = "official"
	SourceParent     SourceType = "parent"
	SourceSubsidiary SourceType = "subsidiary"
	SourceJobSite    SourceType = "job_site"
	SourceBlog       SourceType = "blog"
	SourceOther      SourceType = "other"
)

// Confidence is the three-tier bucket a score maps to.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Input is one web search hit awaiting a score, plus the target company
// and mode flags (spec §4.7).
type Input struct {
	URL     string
	Title   string
	Snippet string

	CompanyName string
	ContentType types.ContentType // desired content type, or legacy search_type

	// PreferredDomain is an optional known-good domain for this company,
	// e.g. one confirmed by a prior successful ingest.
	PreferredDomain string

	// TargetGraduationYear, when non-zero, is the recruitment year the
	// caller is searching for (e.g. 2027 for "27卒"). Zero disables the
	// year-alignment factor.
	TargetGraduationYear int

	StrictCompanyMatch bool
	AllowAggregators   bool
	AllowSnippetMatch  bool
}

// Breakdown is C7's output: the additive total plus a named factor-by-factor
// trace for debugging/tuning, and the confidence tier applied last.
type Breakdown struct {
	Total      float64
	Factors    map[string]float64
	SourceType SourceType
	Confidence Confidence
}

func newBreakdown(sourceType SourceType) *Breakdown {
	return &Breakdown{Factors: make(map[string]float64), SourceType: sourceType}
}

func (b *Breakdown) add(factor string, delta float64) {
	if delta == 0 {
		return
	}
	b.Factors[factor] += delta
	b.Total += delta
}

func (b *Breakdown) scale(factor string, mult float64) {
	scaled := b.Total * mult
	b.Factors[factor] = scaled - b.Total
	b.Total = scaled
}
