// Package tokenizer provides Japanese surface-form tokenization for the
// keyword index (C3): width/case normalization, stopword filtering, and a
// pluggable morphological-analyzer backend with a regex fallback that is
// always available.
package tokenizer

import (
	"regexp"
	"strings"
)

// delimiterRegex splits on whitespace and the common Japanese/Latin
// punctuation that separates clauses: full-width space, commas, the
// Japanese comma/period, Latin comma/period, bang/question marks (both
// widths), and newlines/tabs.
var delimiterRegex = regexp.MustCompile(`[\s\x{3000},，、。．.!！?？\n\r\t]+`)

// whitespaceRegex collapses runs of whitespace during normalization.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// fullwidthTable maps full-width ASCII letters and digits to their
// half-width equivalents, mirroring Python's str.translate table in the
// original tokenizer.
var fullwidthTable = buildFullwidthTable()

func buildFullwidthTable() map[rune]rune {
	m := make(map[rune]rune, 62)
	fullUpper := []rune("ＡＢＣＤＥＦＧＨＩＪＫＬＭＮＯＰＱＲＳＴＵＶＷＸＹＺ")
	fullLower := []rune("ａｂｃｄｅｆｇｈｉｊｋｌｍｎｏｐｑｒｓｔｕｖｗｘｙｚ")
	fullDigit := []rune("０１２３４５６７８９")
	for i, r := range fullUpper {
		m[r] = rune('A' + i)
	}
	for i, r := range fullLower {
		m[r] = rune('a' + i)
	}
	for i, r := range fullDigit {
		m[r] = rune('0' + i)
	}
	return m
}

// Backend is a pluggable morphological analyzer. The zero-value Tokenizer
// has no Backend and always uses the regex fallback, matching the spec's
// requirement that a fallback splitter be available regardless of whether
// a MeCab-family analyzer is installed.
type Backend interface {
	// Analyze returns surface-form tokens for already width/case-normalized
	// text. It must not apply stopword filtering; that is the Tokenizer's
	// job so the same stopword set applies uniformly across backends.
	Analyze(text string) ([]string, error)
}

// Tokenizer is a deterministic, idempotent str->[]string tokenizer (C2).
type Tokenizer struct {
	backend   Backend
	stopwords map[string]struct{}
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithBackend installs a morphological-analyzer backend (e.g. a cgo MeCab
// binding). When the backend's Analyze call errors, Tokenize falls back to
// the regex splitter for that call rather than failing.
func WithBackend(b Backend) Option {
	return func(t *Tokenizer) { t.backend = b }
}

// WithStopwords overrides the default stopword set.
func WithStopwords(words []string) Option {
	return func(t *Tokenizer) { t.stopwords = buildStopwordSet(words) }
}

// New creates a Tokenizer with the default Japanese stopword set and no
// morphological backend (regex fallback only).
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{stopwords: buildStopwordSet(DefaultStopwords)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits text into surface-form tokens: normalizes width and case,
// runs the backend (or the fallback splitter), drops single-character
// non-alphanumeric tokens, and filters stopwords. Empty input yields an
// empty, non-nil slice.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	normalized := t.normalize(text)

	var raw []string
	if t.backend != nil {
		if tokens, err := t.backend.Analyze(normalized); err == nil {
			raw = tokens
		}
	}
	if raw == nil {
		raw = t.fallbackSplit(normalized)
	}

	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if tok == "" {
			continue
		}
		if len([]rune(tok)) <= 1 && !isAlnum(tok) {
			continue
		}
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// normalize folds full-width ASCII to half-width, lowercases, and collapses
// whitespace runs to a single space.
func (t *Tokenizer) normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if mapped, ok := fullwidthTable[r]; ok {
			r = mapped
		}
		b.WriteRune(r)
	}
	lowered := strings.ToLower(b.String())
	collapsed := whitespaceRegex.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(collapsed)
}

// fallbackSplit splits on whitespace and Japanese/Latin punctuation,
// keeping tokens with length >= 2 or that are purely alphanumeric.
func (t *Tokenizer) fallbackSplit(text string) []string {
	parts := delimiterRegex.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len([]rune(p)) >= 2 || isAlnum(p) {
			out = append(out, p)
		}
	}
	return out
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

func buildStopwordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// DefaultStopwords is the Japanese particle/copula/auxiliary stopword set
// filtered from every tokenization, grounded on the original tokenizer's
// hand-curated list.
var DefaultStopwords = []string{
	// Particles
	"の", "に", "は", "を", "た", "が", "で", "て", "と", "し", "れ",
	"さ", "ある", "いる", "も", "な", "する", "から", "こと",
	"として", "い", "や", "など", "なっ", "ない", "この", "ため",
	"その", "あっ", "よう", "また", "もの", "という", "あり", "まで",
	"られ", "なる", "へ", "か", "だ", "これ", "によって", "により",
	"おり", "より", "による", "ず", "なり", "られる", "において",
	"ば", "なかっ", "なく", "しかし", "について", "せ", "だっ", "その他",
	"できる", "それ", "ほど", "ところ", "ただし", "でき", "つつ",
	// Common function words
	"ます", "です", "ました", "でした", "ません", "ください",
}
