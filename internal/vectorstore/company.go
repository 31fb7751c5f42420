package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/saoki0913/career-compass-retrieval/internal/embed"
	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// minMeaningfulChunkChars is the shortest chunk text worth embedding; shorter
// chunks (stray headings, nav fragments) are skipped at ingest.
const minMeaningfulChunkChars = 10

// ContextResult is one hit returned from a company-scoped context search.
type ContextResult struct {
	ID        string
	Text      string
	Metadata  map[string]string
	Distance  float32
	Embedding []float32 // only set when requested and the backend retains it
}

// CompanyStore wraps a single HNSW graph shared across companies, filtering
// by metadata.company_id at search time (mirroring a single-collection
// vector database rather than one file per company).
type CompanyStore struct {
	mu       sync.RWMutex
	hnsw     *HNSWStore
	embedder embed.Embedder

	texts     map[string]string
	metadata  map[string]map[string]string
	byCompany map[string]map[string]struct{}
}

// NewCompanyStore creates a company-scoped vector store over a fresh HNSW
// graph sized to embedder's dimensions.
func NewCompanyStore(embedder embed.Embedder, cfg VectorStoreConfig) (*CompanyStore, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = embedder.Dimensions()
	}
	hnsw, err := NewHNSWStore(cfg)
	if err != nil {
		return nil, err
	}
	return &CompanyStore{
		hnsw:      hnsw,
		embedder:  embedder,
		texts:     make(map[string]string),
		metadata:  make(map[string]map[string]string),
		byCompany: make(map[string]map[string]struct{}),
	}, nil
}

// FilterScalarMetadata drops non-primitive values from a chunk's loosely
// typed ingest metadata, keeping only what a vector-store metadata filter
// can reason about (spec §4.4).
func FilterScalarMetadata(meta map[string]interface{}) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		case int, int32, int64, float32, float64:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// StoreCompanyInfo replaces all of companyID's chunks: existing entries are
// deleted first, then each chunk with enough meaningful text is embedded in
// one batch and inserted. IDs are assigned "<company_id>_<i>" over the
// surviving chunks in order.
func (s *CompanyStore) StoreCompanyInfo(ctx context.Context, companyID, companyName string, chunks []*types.Chunk, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCompanyLocked(companyID)

	texts := make([]string, 0, len(chunks))
	kept := make([]*types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Text)) < minMeaningfulChunkChars {
			continue
		}
		texts = append(texts, c.Text)
		kept = append(kept, c)
	}
	if len(texts) == 0 {
		slog.Warn("no valid content chunks for company", "company_id", companyID)
		return nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks for company %s: %w", companyID, err)
	}

	ids := make([]string, 0, len(kept))
	vectors := make([][]float32, 0, len(kept))
	for i, c := range kept {
		if i >= len(embeddings) || embeddings[i] == nil {
			continue
		}
		id := fmt.Sprintf("%s_%d", companyID, i)
		meta := map[string]string{
			"company_id":   companyID,
			"company_name": companyName,
			"source_url":   sourceURL,
			"chunk_type":   string(c.ChunkType),
			"content_type": string(c.ContentType),
			"chunk_index":  fmt.Sprintf("%d", i),
		}
		if len(c.SecondaryContentTypes) > 0 {
			secondary := make([]string, len(c.SecondaryContentTypes))
			for j, ct := range c.SecondaryContentTypes {
				secondary[j] = string(ct)
			}
			meta["secondary_content_types"] = strings.Join(secondary, ",")
		}
		for k, v := range c.Metadata {
			meta[k] = v
		}

		ids = append(ids, id)
		vectors = append(vectors, embeddings[i])
		s.texts[id] = c.Text
		s.metadata[id] = meta
		if s.byCompany[companyID] == nil {
			s.byCompany[companyID] = make(map[string]struct{})
		}
		s.byCompany[companyID][id] = struct{}{}
	}

	if len(ids) == 0 {
		slog.Warn("failed to generate embeddings for company", "company_id", companyID)
		return nil
	}

	if err := s.hnsw.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("inserting vectors for company %s: %w", companyID, err)
	}
	return nil
}

// SearchCompanyContextByType embeds query, runs an ANN search restricted to
// companyID, optionally filters by contentTypes (expanded to legacy
// aliases), and returns hits ordered by ascending distance.
func (s *CompanyStore) SearchCompanyContextByType(ctx context.Context, companyID, query string, nResults int, contentTypes []types.ContentType, includeEmbeddings bool) ([]*ContextResult, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query for company %s: %w", companyID, err)
	}

	s.mu.RLock()
	corpusSize := len(s.byCompany[companyID])
	s.mu.RUnlock()
	if corpusSize == 0 || nResults <= 0 {
		return nil, nil
	}

	allowed := intent.ExpandContentTypeFilter(contentTypes)

	// Over-fetch from the shared graph since it has no native per-company
	// filter; widen until enough of companyID's own hits are found or the
	// whole graph has been scanned.
	fetchK := nResults * 4
	if fetchK < 50 {
		fetchK = 50
	}

	s.mu.RLock()
	totalVectors := s.hnsw.Count()
	s.mu.RUnlock()

	var matches []*ContextResult
	for {
		if fetchK > totalVectors {
			fetchK = totalVectors
		}
		raw, err := s.hnsw.Search(ctx, queryEmbedding, fetchK)
		if err != nil {
			return nil, fmt.Errorf("searching vectors for company %s: %w", companyID, err)
		}

		s.mu.RLock()
		matches = matches[:0]
		for _, r := range raw {
			meta, ok := s.metadata[r.ID]
			if !ok || meta["company_id"] != companyID {
				continue
			}
			if len(allowed) > 0 && !intent.MatchesAllowedTypes(types.ContentType(meta["content_type"]), allowed) {
				continue
			}
			cr := &ContextResult{ID: r.ID, Text: s.texts[r.ID], Metadata: meta, Distance: r.Distance}
			matches = append(matches, cr)
		}
		s.mu.RUnlock()

		if len(matches) >= nResults || fetchK >= totalVectors {
			break
		}
		fetchK *= 2
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > nResults {
		matches = matches[:nResults]
	}

	if includeEmbeddings {
		// coder/hnsw doesn't expose stored vectors by key, so per-result
		// embeddings are left unset and MMR keeps the fused order instead
		// of diversifying.
		slog.Debug("include_embeddings requested but backend cannot return stored vectors", "company_id", companyID)
	}

	return matches, nil
}

// DeleteCompanyRAG removes all of companyID's vectors.
func (s *CompanyStore) DeleteCompanyRAG(ctx context.Context, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCompanyLocked(companyID)
}

func (s *CompanyStore) deleteCompanyLocked(companyID string) error {
	ids, ok := s.byCompany[companyID]
	if !ok || len(ids) == 0 {
		return nil
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
		delete(s.texts, id)
		delete(s.metadata, id)
	}
	delete(s.byCompany, companyID)
	return s.hnsw.Delete(context.Background(), idList)
}

// Save persists the underlying HNSW graph and its ID mapping. The
// company-scoped text and metadata side-table is not written (see Load).
func (s *CompanyStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hnsw.Save(path)
}

// Load restores the underlying HNSW graph. The metadata side-table is not
// itself persisted by this store; callers that need durable metadata pair
// this with a metadata reload from their own chunk store.
func (s *CompanyStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hnsw.Load(path)
}

// Close releases the underlying graph's resources.
func (s *CompanyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hnsw.Close()
}
