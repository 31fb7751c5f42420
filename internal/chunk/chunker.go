package chunk

import (
	"strconv"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// PageInput is one ingested page's text plus the identifying fields
// attached to each chunk it produces.
type PageInput struct {
	CompanyID   string
	CompanyName string
	SourceURL   string
	ContentType types.ContentType
	Sections    []Section // empty: the page produces no chunks
}

// Chunker turns ingested page text into types.Chunk records, sizing the
// cascade per content type and numbering chunks/sections in page order.
type Chunker struct {
	opts []Option
}

// NewChunker builds a Chunker. Options are forwarded to each per-content-type
// Cascade it constructs.
func NewChunker(opts ...Option) *Chunker {
	return &Chunker{opts: opts}
}

// Chunk splits page into ordered types.Chunk records. IDs are left unset;
// the ingest caller assigns "<company_id>_<ordinal>" once all of a
// company's pages have been chunked, matching spec §3's ID contract.
func (c *Chunker) Chunk(page PageInput) []*types.Chunk {
	sections := page.Sections
	if len(sections) == 0 {
		sections = []Section{{Content: ""}}
	}

	cascade := NewCascadeForContentType(string(page.ContentType), c.opts...)

	var out []*types.Chunk
	globalIndex := 0
	for sectionIndex, section := range sections {
		content := section.Content
		if strings.TrimSpace(content) == "" {
			continue
		}
		for _, r := range cascade.Split(content) {
			out = append(out, &types.Chunk{
				CompanyID:    page.CompanyID,
				CompanyName:  page.CompanyName,
				SourceURL:    page.SourceURL,
				ChunkType:    types.ChunkTypeFullText,
				ContentType:  page.ContentType,
				HeadingPath:  section.HeadingPath,
				HeadingLevel: section.HeadingLevel,
				ChunkIndex:   globalIndex,
				SectionIndex: sectionIndex,
				Text:         r.Text,
				Metadata: map[string]string{
					"start_index": strconv.Itoa(r.StartIndex),
					"end_index":   strconv.Itoa(r.EndIndex),
				},
			})
			globalIndex++
		}
	}
	return out
}
