// Package expand implements Query Expansion / HyDE (C8): LLM-generated
// query variants and a hypothetical-document passage that widen recall
// ahead of dense retrieval, backed by a bounded, TTL-expiring cache so
// repeated queries don't re-pay LLM cost.
package expand

import "time"

// Config holds the length gates and fan-out limits spec §4.8 applies before
// calling the LLM at all.
type Config struct {
	// MaxQueries caps how many expansion variants are requested per call.
	MaxQueries int

	// MaxTotalQueries caps the deduplicated union of the original query,
	// expansion variants, and the HyDE passage handed to the caller.
	MaxTotalQueries int

	// ShortQueryThreshold selects the lightweight keyword-expansion prompt
	// for queries shorter than this many characters.
	ShortQueryThreshold int

	// ExpansionMinChars/ExpansionMaxChars gate when expansion runs at all:
	// too short a query has nothing to expand, too long already carries
	// enough signal and risks exceeding prompt budgets.
	ExpansionMinChars int
	ExpansionMaxChars int

	// HydeMaxChars gates HyDE generation independently of expansion.
	HydeMaxChars int

	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig mirrors the original's module-level constants.
func DefaultConfig() Config {
	return Config{
		MaxQueries:          3,
		MaxTotalQueries:     4,
		ShortQueryThreshold: 10,
		ExpansionMinChars:   5,
		ExpansionMaxChars:   1200,
		HydeMaxChars:        600,
		CacheSize:           500,
		CacheTTL:            7 * 24 * time.Hour,
	}
}

// Result is what Expand returns: the deduplicated, length-capped query list
// ready for per-query dense search, plus whether a HyDE passage was folded
// into it (so callers can, e.g., exclude it from BM25 fan-out).
type Result struct {
	Queries      []string
	HyDEIncluded bool
}
