package expand

import "context"

// QueryExpansionFunc generates up to maxQueries query variants via the LLM
// gateway (C11), given the original query and any extracted keyword seeds.
// Implementations are expected to use the short-query or long-query prompt
// variant themselves based on query length; Expander only decides whether
// to call this at all.
type QueryExpansionFunc func(ctx context.Context, query string, maxQueries int, keywords []string) ([]string, error)

// HyDEFunc generates a single hypothetical-document passage for query.
type HyDEFunc func(ctx context.Context, query string) (string, error)
