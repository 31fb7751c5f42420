package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/chunk"
	"github.com/saoki0913/career-compass-retrieval/internal/classify"
	"github.com/saoki0913/career-compass-retrieval/internal/keywordindex"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// minMeaningfulChunkChars mirrors vectorstore.CompanyStore's own (private)
// threshold for skipping stray headings/nav fragments at ingest, so chunks
// dropped here never reach the keyword index with an id the vector store
// never assigned.
const minMeaningfulChunkChars = 10

// pageFile is one ingested page as read from a reindex input file: the
// scraping/crawling step is out of scope (spec.md's non-goals exclude
// "HTTP handlers"), so reindex consumes already-scraped page text.
type pageFile struct {
	SourceURL   string        `json:"source_url"`
	ContentType string        `json:"content_type"`
	CompanyName string        `json:"company_name"`
	Sections    []sectionFile `json:"sections"`
}

type sectionFile struct {
	Heading      string `json:"heading"`
	HeadingPath  string `json:"heading_path"`
	HeadingLevel int    `json:"heading_level"`
	Content      string `json:"content"`
}

// loadPages reads a JSON array of pageFile from path.
func loadPages(path string) ([]pageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pages file: %w", err)
	}
	var pages []pageFile
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse pages file: %w", err)
	}
	return pages, nil
}

// stageFunc reports ingestCompany's progress as it moves through pages.
type stageFunc func(stage string, current, total int)

// ingestCompany chunks, classifies, embeds, and indexes every page in
// pages for companyID, mirroring the original's per-company reindex flow:
// chunk (internal/chunk), classify (C5), then fan the resulting chunks out to the
// vector store (C4) and keyword index (C3).
func ingestCompany(ctx context.Context, st *stack, companyID string, pages []pageFile, report stageFunc) (int, error) {
	chunker := chunk.NewChunker()

	var allChunks []*types.Chunk
	var companyName string

	report("chunk", 0, len(pages))
	for i, page := range pages {
		if page.CompanyName != "" {
			companyName = page.CompanyName
		}

		sections := make([]chunk.Section, len(page.Sections))
		for j, s := range page.Sections {
			sections[j] = chunk.Section{
				Heading:      s.Heading,
				HeadingPath:  s.HeadingPath,
				HeadingLevel: s.HeadingLevel,
				Content:      s.Content,
			}
		}

		pageChunks := chunker.Chunk(chunk.PageInput{
			CompanyID:   companyID,
			CompanyName: companyName,
			SourceURL:   page.SourceURL,
			ContentType: types.ContentType(page.ContentType),
			Sections:    sections,
		})

		classifyPageChunks(ctx, st.classifier, page, pageChunks)
		allChunks = append(allChunks, pageChunks...)
		report("chunk", i+1, len(pages))
	}

	allChunks = filterMeaningfulChunks(allChunks)
	assignChunkIDs(companyID, allChunks)

	report("embed", 0, len(allChunks))
	if err := st.vector.StoreCompanyInfo(ctx, companyID, companyName, allChunks, ""); err != nil {
		return 0, fmt.Errorf("store vectors: %w", err)
	}
	report("embed", len(allChunks), len(allChunks))

	report("index", 0, len(allChunks))
	idx, err := st.keywordMgr.Get(companyID)
	if err != nil {
		return 0, fmt.Errorf("open keyword index: %w", err)
	}
	docs := make([]*keywordindex.IndexedDocument, len(allChunks))
	for i, c := range allChunks {
		docs[i] = &keywordindex.IndexedDocument{
			ID:          c.ID,
			Text:        c.Text,
			ContentType: c.ContentType,
			Metadata:    c.Metadata,
		}
	}
	if err := idx.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}
	if err := idx.Save(); err != nil {
		return 0, fmt.Errorf("save keyword index: %w", err)
	}
	report("index", len(allChunks), len(allChunks))

	return len(allChunks), nil
}

// classifyPageChunks labels each chunk's ContentType in place, batching
// the classifier call per page the way the original batches per scrape.
func classifyPageChunks(ctx context.Context, classifier *classify.ChunkClassifier, page pageFile, chunks []*types.Chunk) {
	sourceChannel := types.ContentType(page.ContentType)

	inputs := make([]classify.ChunkInput, len(chunks))
	for i, c := range chunks {
		inputs[i] = classify.ChunkInput{
			SourceURL: c.SourceURL,
			Heading:   c.HeadingPath,
			Text:      c.Text,
		}
	}
	labels := classifier.ClassifyChunks(ctx, inputs, sourceChannel, sourceChannel)
	for i, c := range chunks {
		c.ContentType = labels[i]
	}
}

// assignChunkIDs numbers chunks "<company_id>_<ordinal>" in page order,
// per spec §3's ID contract (chunk.Chunker leaves IDs unset for this step).
func assignChunkIDs(companyID string, chunks []*types.Chunk) {
	for i, c := range chunks {
		c.ID = fmt.Sprintf("%s_%d", companyID, i)
	}
}

// filterMeaningfulChunks drops chunks shorter than minMeaningfulChunkChars.
func filterMeaningfulChunks(chunks []*types.Chunk) []*types.Chunk {
	out := make([]*types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Text)) >= minMeaningfulChunkChars {
			out = append(out, c)
		}
	}
	return out
}
