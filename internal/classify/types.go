// Package classify implements the Content Classifier (C5): nine-way
// content-type labelling of ingested chunks, rule-first with an LLM
// fallback for anything the keyword/URL rules leave ambiguous.
package classify

import "github.com/saoki0913/career-compass-retrieval/pkg/types"

// ChunkInput is the per-chunk evidence the classifier reasons over.
type ChunkInput struct {
	SourceURL string
	Heading   string
	Text      string
}

// memoKey mirrors classify_chunks' batch memoization key:
// source_url|heading|text[:80].
func (c ChunkInput) memoKey() string {
	runes := []rune(c.Text)
	if len(runes) > 80 {
		runes = runes[:80]
	}
	return c.SourceURL + "|" + c.Heading + "|" + string(runes)
}
