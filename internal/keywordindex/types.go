// Package keywordindex implements the per-company BM25 keyword index (C3):
// documents are tokenized through the Japanese tokenizer (C2), indexed
// against one of two interchangeable backends (SQLite FTS5 or Bleve), and
// persisted one file per company under a stable directory.
package keywordindex

import (
	"context"

	"github.com/saoki0913/career-compass-retrieval/internal/tokenizer"
)

// Document represents a document to be indexed in BM25.
type Document struct {
	ID      string // Chunk ID
	Content string
}

// BM25Result represents a single BM25 search result.
type BM25Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// IndexStats provides statistics about a BM25 index.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// BM25Index provides per-company keyword search using BM25 scoring.
type BM25Index interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*Document) error

	// Search returns documents matching query, scored by BM25, tokenizing
	// the query through the same pipeline used at index time.
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, docIDs []string) error

	// AllIDs returns all document IDs in the index, for consistency checks
	// against the vector store.
	AllIDs() ([]string, error)

	// Stats returns index statistics.
	Stats() *IndexStats

	// Persistence.
	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config configures a per-company BM25 index. Neither backend reads K1,
// B or MinTokenLength; scoring uses each engine's own BM25 defaults, and
// StopWords is the only field that changes indexing.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default 1.2).
	K1 float64

	// B is the length normalization parameter (default 0.75).
	B float64

	// StopWords overrides the tokenizer's default Japanese stopword set.
	StopWords []string

	// MinTokenLength records a minimum token length (default 2) that no
	// backend applies; the only length filter is the tokenizer's own
	// dropping of single-character non-alphanumeric tokens.
	MinTokenLength int
}

// DefaultBM25Config returns default BM25 configuration, with the
// tokenizer's default Japanese stopword list.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:             1.2,
		B:              0.75,
		StopWords:      tokenizer.DefaultStopwords,
		MinTokenLength: 2,
	}
}

// newTokenizer builds the tokenizer instance a BM25Config implies.
func newTokenizer(config BM25Config) *tokenizer.Tokenizer {
	if len(config.StopWords) == 0 {
		return tokenizer.New()
	}
	return tokenizer.New(tokenizer.WithStopwords(config.StopWords))
}
