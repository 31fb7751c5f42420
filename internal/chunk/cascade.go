package chunk

import (
	"regexp"
	"strings"
)

// DefaultChunkSize and DefaultChunkOverlap are the fallback chunk-size
// parameters when a content type has no entry in chunkSizeByContentType.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultMinChunkSize = 50
)

// chunkSizeByContentType mirrors get_chunk_settings's CHUNK_SIZE_BY_CONTENT_TYPE
// table: recruitment pages are kept tight for precise retrieval, IR/midterm
// plan documents run longer since their paragraphs carry more context.
var chunkSizeByContentType = map[string]int{
	"recruitment_homepage":  300,
	"new_grad_recruitment":  300,
	"midcareer_recruitment": 300,
	"employee_interviews":   400,
	"corporate_site":        500,
	"ir_materials":          700,
	"ceo_message":           500,
	"midterm_plan":          800,
}

// defaultSeparators is the cascade's preference order: paragraph breaks,
// line breaks, then Japanese sentence/clause punctuation, then a plain
// space, then "" (character-by-character, the last-resort force split).
var defaultSeparators = []string{"\n\n", "\n", "。", "！", "？", "、", " ", ""}

var collapseBlankLines = regexp.MustCompile(`\n{3,}`)
var collapseSpaces = regexp.MustCompile(`[ \t]+`)

// SizeForContentType returns the chunk size/overlap pair for a content
// type, falling back to DefaultChunkSize/DefaultChunkOverlap when the
// content type has no tuned entry.
func SizeForContentType(contentType string) (size, overlap int) {
	if s, ok := chunkSizeByContentType[strings.ToLower(contentType)]; ok {
		return s, DefaultChunkOverlap
	}
	return DefaultChunkSize, DefaultChunkOverlap
}

// Cascade splits Japanese prose into overlapping chunks using a recursive
// separator cascade, character-counted rather than token-counted since
// Japanese characters are individually information-dense.
type Cascade struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	minChunkSize int
}

// Option configures a Cascade at construction time.
type Option func(*Cascade)

// WithSeparators overrides the default separator cascade.
func WithSeparators(separators []string) Option {
	return func(c *Cascade) { c.separators = separators }
}

// WithMinChunkSize overrides the minimum chunk size below which a trailing
// chunk is merged into its predecessor rather than emitted standalone.
func WithMinChunkSize(min int) Option {
	return func(c *Cascade) { c.minChunkSize = min }
}

// NewCascade builds a Cascade for the given chunk size/overlap.
func NewCascade(chunkSize, chunkOverlap int, opts ...Option) *Cascade {
	c := &Cascade{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
		minChunkSize: DefaultMinChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCascadeForContentType builds a Cascade sized per SizeForContentType.
func NewCascadeForContentType(contentType string, opts ...Option) *Cascade {
	size, overlap := SizeForContentType(contentType)
	return NewCascade(size, overlap, opts...)
}

// Split breaks text into overlapping Results. Text shorter than the
// configured chunk size comes back as a single, unpadded chunk.
func (c *Cascade) Split(text string) []Result {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := normalize(text)
	if len([]rune(normalized)) <= c.chunkSize {
		return []Result{{Text: normalized, ChunkIndex: 0, StartIndex: 0, EndIndex: len([]rune(normalized))}}
	}

	parts := c.splitRecursive(normalized, c.separators)
	return c.mergeAndOverlap(parts, normalized)
}

func normalize(text string) string {
	text = collapseBlankLines.ReplaceAllString(text, "\n\n")
	text = collapseSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitRecursive tries each separator in turn, recursing into any part that
// still exceeds chunkSize, and falls back to a character-count force split
// once separators are exhausted (grounded on _split_recursive/_force_split).
func (c *Cascade) splitRecursive(text string, separators []string) []string {
	if len(separators) == 0 {
		return c.forceSplit(text)
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return c.forceSplit(text)
	}

	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return c.splitRecursive(text, rest)
	}

	var result []string
	for i, part := range parts {
		withSep := part
		if i < len(parts)-1 {
			withSep = part + sep
		}
		if strings.TrimSpace(withSep) == "" {
			continue
		}
		if len([]rune(withSep)) > c.chunkSize {
			result = append(result, c.splitRecursive(withSep, rest)...)
		} else {
			result = append(result, withSep)
		}
	}
	return result
}

func (c *Cascade) forceSplit(text string) []string {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += c.chunkSize {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := string(runes[i:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// mergeAndOverlap coalesces undersized parts up to chunkSize, folds any
// remaining sub-minChunkSize tail into its predecessor, then prepends each
// chunk (after the first) with up to chunkOverlap characters of the
// preceding context (grounded on _merge_and_overlap).
func (c *Cascade) mergeAndOverlap(parts []string, original string) []Result {
	if len(parts) == 0 {
		return nil
	}

	var merged []string
	var current strings.Builder
	currentLen := 0
	for _, part := range parts {
		partLen := len([]rune(part))
		if currentLen+partLen <= c.chunkSize {
			current.WriteString(part)
			currentLen += partLen
		} else {
			if strings.TrimSpace(current.String()) != "" {
				merged = append(merged, current.String())
			}
			current.Reset()
			current.WriteString(part)
			currentLen = partLen
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		merged = append(merged, current.String())
	}

	var final []string
	for _, m := range merged {
		if len([]rune(m)) < c.minChunkSize && len(final) > 0 {
			final[len(final)-1] += m
		} else {
			final = append(final, m)
		}
	}

	originalRunes := []rune(original)
	results := make([]Result, 0, len(final))
	currentPos := 0
	for i, chunkText := range final {
		start := findRuneIndex(originalRunes, []rune(chunkText), currentPos)
		if start == -1 {
			start = currentPos
		}
		end := start + len([]rune(chunkText))

		text := chunkText
		actualStart := start
		if i > 0 && c.chunkOverlap > 0 {
			overlapStart := start - c.chunkOverlap
			if overlapStart < 0 {
				overlapStart = 0
			}
			text = string(originalRunes[overlapStart:start]) + chunkText
			actualStart = overlapStart
		}

		results = append(results, Result{
			Text:       strings.TrimSpace(text),
			ChunkIndex: i,
			StartIndex: actualStart,
			EndIndex:   end,
		})
		currentPos = end
	}
	return results
}

// findRuneIndex locates the first occurrence of needle (or its first 50
// runes, whichever is shorter) in haystack at or after from, matching
// _merge_and_overlap's original_text.find(chunk[:50], current_pos) probe.
func findRuneIndex(haystack, needle []rune, from int) int {
	probeLen := len(needle)
	if probeLen > 50 {
		probeLen = 50
	}
	probe := needle[:probeLen]
	if from < 0 {
		from = 0
	}
	for i := from; i+len(probe) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(probe)], probe) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
