package expand

import (
	"context"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/saoki0913/career-compass-retrieval/internal/tokenizer"
)

// Expander runs query expansion and HyDE generation ahead of dense
// retrieval (spec §4.8), gated by query length and deduplicated with the
// orchestrator's max-total-queries budget.
type Expander struct {
	cfg       Config
	expandFn  QueryExpansionFunc
	hydeFn    HyDEFunc
	tokenizer *tokenizer.Tokenizer
	cache     *lru.LRU[string, []string]
}

// Option configures an Expander at construction time.
type Option func(*Expander)

// WithConfig overrides the default length gates and cache sizing.
func WithConfig(cfg Config) Option {
	return func(e *Expander) { e.cfg = cfg }
}

// New builds an Expander. expandFn and hydeFn may be nil, in which case
// Expand behaves as if expansion/HyDE were disabled for every call -
// letting callers wire in C11 without this package depending on it.
func New(expandFn QueryExpansionFunc, hydeFn HyDEFunc, opts ...Option) *Expander {
	e := &Expander{
		cfg:       DefaultConfig(),
		expandFn:  expandFn,
		hydeFn:    hydeFn,
		tokenizer: tokenizer.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newExpansionCache(e.cfg.CacheSize, e.cfg.CacheTTL)
	return e
}

// Expand runs spec §4.8's full pipeline for one query: gate by length,
// fan out query expansion and HyDE concurrently, trim expansion variants
// to make room for the HyDE passage, then dedupe against maxTotalQueries
// (which always reserves a slot for the original query itself).
func (e *Expander) Expand(ctx context.Context, query string, expandQueries, useHyde bool) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, nil
	}

	effectiveExpand := expandQueries &&
		e.cfg.MaxQueries > 0 &&
		len([]rune(query)) >= e.cfg.ExpansionMinChars &&
		len([]rune(query)) <= e.cfg.ExpansionMaxChars
	effectiveHyde := useHyde && len([]rune(query)) <= e.cfg.HydeMaxChars

	var expanded []string
	var hydeDoc string
	var expandErr, hydeErr error

	if effectiveExpand && effectiveHyde {
		type expandOutcome struct {
			queries []string
			err     error
		}
		expandCh := make(chan expandOutcome, 1)
		go func() {
			q, err := e.expandQueries(ctx, query)
			expandCh <- expandOutcome{q, err}
		}()
		hydeDoc, hydeErr = e.generateHyDE(ctx, query)
		out := <-expandCh
		expanded, expandErr = out.queries, out.err
	} else if effectiveExpand {
		expanded, expandErr = e.expandQueries(ctx, query)
	} else if effectiveHyde {
		hydeDoc, hydeErr = e.generateHyDE(ctx, query)
	}

	// Non-fatal: a failed expansion/HyDE call degrades to "search with just
	// the original query" rather than failing retrieval outright.
	if expandErr != nil {
		expanded = nil
	}
	if hydeErr != nil {
		hydeDoc = ""
	}

	if effectiveHyde && len(expanded) > 2 {
		expanded = expanded[:2]
	}

	queries := []string{query}
	queries = append(queries, expanded...)
	hydeIncluded := false
	if hydeDoc != "" {
		queries = append(queries, hydeDoc)
		hydeIncluded = true
	}

	queries = dedupeQueries(queries, e.cfg.MaxTotalQueries)
	return Result{Queries: queries, HyDEIncluded: hydeIncluded}, nil
}

// expandQueries is expand_queries_with_llm: cache lookup first, then the
// gateway call, caching only a non-empty result.
func (e *Expander) expandQueries(ctx context.Context, query string) ([]string, error) {
	if e.expandFn == nil {
		return nil, nil
	}

	key := expansionCacheKey(query)
	if cached, ok := e.cache.Get(key); ok {
		if len(cached) > e.cfg.MaxQueries {
			return cached[:e.cfg.MaxQueries], nil
		}
		return cached, nil
	}

	keywords := extractKeywords(e.tokenizer, query, 8)
	result, err := e.expandFn(ctx, query, e.cfg.MaxQueries, keywords)
	if err != nil {
		return nil, err
	}

	clean := dedupeQueries(result, e.cfg.MaxQueries)
	if len(clean) > 0 {
		e.cache.Add(key, clean)
	}
	return clean, nil
}

// generateHyDE is generate_hypothetical_document, truncated to 1200
// characters as the original does before returning.
func (e *Expander) generateHyDE(ctx context.Context, query string) (string, error) {
	if e.hydeFn == nil {
		return "", nil
	}
	passage, err := e.hydeFn(ctx, query)
	if err != nil {
		return "", err
	}
	passage = strings.TrimSpace(passage)
	if runes := []rune(passage); len(runes) > 1200 {
		passage = string(runes[:1200])
	}
	return passage, nil
}

// IsShortQuery reports whether query is below the lightweight-prompt
// threshold, letting an expandFn implementation choose between the
// keyword-style and passage-style expansion prompt.
func (e *Expander) IsShortQuery(query string) bool {
	return len([]rune(query)) < e.cfg.ShortQueryThreshold
}

func dedupeQueries(queries []string, maxTotal int) []string {
	seen := make(map[string]struct{}, len(queries))
	var cleaned []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		cleaned = append(cleaned, q)
		if len(cleaned) >= maxTotal {
			break
		}
	}
	return cleaned
}

// extractKeywords tokenizes text and returns the n most frequent tokens of
// length >= 2 runes, ties broken by first occurrence, grounded on
// _extract_keywords.
func extractKeywords(tok *tokenizer.Tokenizer, text string, n int) []string {
	tokens := tok.Tokenize(text)
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if len([]rune(t)) < 2 {
			continue
		}
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}
