package keywordindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/saoki0913/career-compass-retrieval/internal/embed"
	"github.com/saoki0913/career-compass-retrieval/internal/errors"
	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// IndexedDocument pairs a document's metadata with its content, mirroring
// the chunk/BM25-document correspondence: doc_id equals the chunk id and
// metadata is the same metadata carried on the chunk.
type IndexedDocument struct {
	ID          string
	Text        string
	ContentType types.ContentType
	Metadata    map[string]string
}

// ScoredDocument is a single search hit: doc_id and score.
type ScoredDocument struct {
	DocID string
	Score float64
}

// CompanyIndex is the per-company BM25 keyword index: documents are
// tokenized through the Japanese tokenizer, indexed against one of the two
// interchangeable backends, and persisted under dataDir/<company_id>.
type CompanyIndex struct {
	mu        sync.Mutex
	companyID string
	basePath  string
	backend   BM25Backend
	config    BM25Config
	logger    *slog.Logger

	index BM25Index
	docs  map[string]*IndexedDocument
	lock  *embed.FileLock
	dirty bool
}

// CompanyIndexManager caches one CompanyIndex per company_id in-process, so
// repeated searches for the same company reuse an already-loaded backend.
type CompanyIndexManager struct {
	mu      sync.Mutex
	dataDir string
	backend BM25Backend
	config  BM25Config
	logger  *slog.Logger
	cache   map[string]*CompanyIndex
}

// NewCompanyIndexManager creates a manager rooted at dataDir, where each
// company's index lives at dataDir/<company_id>.db (or .bleve).
func NewCompanyIndexManager(dataDir string, backend BM25Backend, config BM25Config, logger *slog.Logger) *CompanyIndexManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyIndexManager{
		dataDir: dataDir,
		backend: backend,
		config:  config,
		logger:  logger,
		cache:   make(map[string]*CompanyIndex),
	}
}

// Get returns the cached CompanyIndex for companyID, loading it from disk
// (or creating an empty one) on first access.
func (m *CompanyIndexManager) Get(companyID string) (*CompanyIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ci, ok := m.cache[companyID]; ok {
		return ci, nil
	}

	ci := &CompanyIndex{
		companyID: companyID,
		basePath:  filepath.Join(m.dataDir, companyID),
		backend:   m.backend,
		config:    m.config,
		logger:    m.logger,
		docs:      make(map[string]*IndexedDocument),
		lock:      embed.NewFileLock(m.dataDir),
	}
	if err := ci.loadIfExists(); err != nil {
		return nil, err
	}
	m.cache[companyID] = ci
	return ci, nil
}

// ClearIndexCache invalidates the in-process cache. If companyID is
// non-empty, only that company's entry is dropped; otherwise the whole
// cache is cleared. Does not touch anything on disk.
func (m *CompanyIndexManager) ClearIndexCache(companyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if companyID == "" {
		m.cache = make(map[string]*CompanyIndex)
		return
	}
	if ci, ok := m.cache[companyID]; ok {
		_ = ci.Close()
		delete(m.cache, companyID)
	}
}

// Exists reports whether a persisted index exists for companyID, without
// loading it into the cache.
func (m *CompanyIndexManager) Exists(companyID string) bool {
	base := filepath.Join(m.dataDir, companyID)
	return DetectBM25Backend(base) != ""
}

// Close saves and releases every cached CompanyIndex, so a process that
// built or queried indices via this manager leaves no open backend handles
// or stale file locks behind on exit.
func (m *CompanyIndexManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for companyID, ci := range m.cache {
		if err := ci.Save(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("saving keyword index for %s: %w", companyID, err)
		}
		if err := ci.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing keyword index for %s: %w", companyID, err)
		}
	}
	m.cache = make(map[string]*CompanyIndex)
	return firstErr
}

// Delete removes a company's persisted index and evicts it from cache.
// Returns false if no index existed.
func (m *CompanyIndexManager) Delete(companyID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := filepath.Join(m.dataDir, companyID)
	detected := DetectBM25Backend(base)
	if detected == "" {
		return false, nil
	}

	if ci, ok := m.cache[companyID]; ok {
		_ = ci.Close()
		delete(m.cache, companyID)
	}

	path := base + ".db"
	if detected == BM25BackendBleve {
		path = base + ".bleve"
	}
	if detected == BM25BackendBleve {
		if err := os.RemoveAll(path); err != nil {
			return false, fmt.Errorf("removing bleve index for %s: %w", companyID, err)
		}
	} else if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("removing sqlite index for %s: %w", companyID, err)
	}
	return true, nil
}

func (ci *CompanyIndex) loadIfExists() error {
	detected := DetectBM25Backend(ci.basePath)
	backend := ci.backend
	if backend == "" {
		backend = detected
	}
	idx, err := NewBM25IndexWithBackend(ci.basePath, ci.config, string(backend))
	if err != nil {
		ci.logger.Warn("keyword index backend unavailable, keyword search disabled", "company_id", ci.companyID, "error", err)
		return nil
	}
	ci.index = idx
	if detected == "" {
		return nil
	}
	ids, err := idx.AllIDs()
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileCorrupt, err)
	}
	for _, id := range ids {
		ci.docs[id] = &IndexedDocument{ID: id}
	}
	return nil
}

// AddDocument adds a single document to the index. metadata's "content_type"
// key, if present, is recorded for search-time content-type filtering.
func (ci *CompanyIndex) AddDocument(ctx context.Context, docID, text string, metadata map[string]string) error {
	return ci.AddDocuments(ctx, []*IndexedDocument{{
		ID:          docID,
		Text:        text,
		ContentType: types.ContentType(metadata["content_type"]),
		Metadata:    metadata,
	}})
}

// AddDocuments adds multiple documents in one batch.
func (ci *CompanyIndex) AddDocuments(ctx context.Context, docs []*IndexedDocument) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.index == nil {
		return nil
	}

	batch := make([]*Document, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, &Document{ID: d.ID, Content: d.Text})
		ci.docs[d.ID] = d
	}
	if err := ci.index.Index(ctx, batch); err != nil {
		return fmt.Errorf("indexing documents for %s: %w", ci.companyID, err)
	}
	ci.dirty = true
	return nil
}

// Search tokenizes query through the same pipeline used at index time,
// clamps k to the corpus size, and filters by allowedTypes (already
// expanded via intent.ExpandContentTypeFilter; empty admits everything).
func (ci *CompanyIndex) Search(ctx context.Context, query string, k int, allowedTypes []types.ContentType) ([]ScoredDocument, error) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.index == nil || len(ci.docs) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(ci.docs) {
		k = len(ci.docs)
	}

	// Over-fetch when filtering, since the backend has no content-type
	// awareness and some of its top-k may be filtered out below.
	fetchK := k
	if len(allowedTypes) > 0 && fetchK < len(ci.docs) {
		fetchK = len(ci.docs)
	}

	results, err := ci.index.Search(ctx, query, fetchK)
	if err != nil {
		return nil, fmt.Errorf("searching keyword index for %s: %w", ci.companyID, err)
	}

	out := make([]ScoredDocument, 0, k)
	for _, r := range results {
		if len(allowedTypes) > 0 {
			doc, ok := ci.docs[r.DocID]
			if !ok || !intent.MatchesAllowedTypes(doc.ContentType, allowedTypes) {
				continue
			}
		}
		out = append(out, ScoredDocument{DocID: r.DocID, Score: r.Score})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// GetDocument returns a document by id, or nil if absent.
func (ci *CompanyIndex) GetDocument(docID string) *IndexedDocument {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.docs[docID]
}

// Clear removes all documents from the index.
func (ci *CompanyIndex) Clear(ctx context.Context) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.index == nil {
		return nil
	}
	ids := make([]string, 0, len(ci.docs))
	for id := range ci.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := ci.index.Delete(ctx, ids); err != nil {
		return fmt.Errorf("clearing keyword index for %s: %w", ci.companyID, err)
	}
	ci.docs = make(map[string]*IndexedDocument)
	ci.dirty = true
	return nil
}

// Save persists the index to disk under a cross-process file lock, since
// the CLI reindex command may run concurrently with a serving process.
func (ci *CompanyIndex) Save() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.index == nil || !ci.dirty {
		return nil
	}
	if err := ci.lock.Lock(); err != nil {
		return fmt.Errorf("locking keyword index dir: %w", err)
	}
	defer func() { _ = ci.lock.Unlock() }()

	if err := ci.index.Save(ci.basePath); err != nil {
		return fmt.Errorf("saving keyword index for %s: %w", ci.companyID, err)
	}
	ci.dirty = false
	return nil
}

// Close releases the backend's resources.
func (ci *CompanyIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if ci.index == nil {
		return nil
	}
	return ci.index.Close()
}
