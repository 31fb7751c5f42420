package registry

import "strings"

// corporateSuffixes are stripped before a company name is used as a mapping
// lookup key, grounded on _normalize_for_lookup.
var corporateSuffixes = []string{
	"株式会社", "（株）", "(株)", "㈱",
	"有限会社", "（有）", "(有)",
	"合同会社", "合名会社", "合資会社",
	"一般社団法人", "一般財団法人",
	"ホールディングス", "HD", "グループ",
	"Inc.", "Inc", "Ltd.", "Ltd", "Holdings", "Corporation", "Corp.", "Corp",
}

// NormalizeForLookup strips common Japanese/English corporate suffixes from
// a company name to produce a mapping lookup key (spec §4.1 "Normalization").
func NormalizeForLookup(companyName string) string {
	result := companyName
	for _, suffix := range corporateSuffixes {
		result = strings.ReplaceAll(result, suffix, "")
	}
	return strings.TrimSpace(result)
}

var fullwidthFold = buildFullwidthFold()

func buildFullwidthFold() map[rune]rune {
	m := make(map[rune]rune, 64)
	for r := rune('Ａ'); r <= 'Ｚ'; r++ {
		m[r] = 'A' + (r - 'Ａ')
	}
	for r := rune('ａ'); r <= 'ｚ'; r++ {
		m[r] = 'a' + (r - 'ａ')
	}
	for r := rune('０'); r <= '９'; r++ {
		m[r] = '0' + (r - '０')
	}
	return m
}

// foldFullwidthLower folds fullwidth ASCII letters/digits to halfwidth and
// lowercases the result, matching the str.translate + .lower() step used
// throughout the original before segment matching.
func foldFullwidthLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := fullwidthFold[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// isASCIILetter reports whether r is a halfwidth or fullwidth ASCII letter.
func isASCIILetter(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r >= 'Ａ' && r <= 'Ｚ', r >= 'ａ' && r <= 'ｚ':
		return true
	default:
		return false
	}
}

// extractDomainHints pulls ASCII-letter runs of length >= 3 out of a company
// name (e.g. katakana-transliterated brand names carrying a Latin spelling),
// folds and lowercases them, grounded on _extract_domain_hints.
func extractDomainHints(companyName string) []string {
	var hints []string
	runes := []rune(companyName)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		run := string(runes[start:end])
		folded := foldFullwidthLower(run)
		if len([]rune(folded)) >= 3 {
			hints = append(hints, folded)
		}
		start = -1
	}
	for i, r := range runes {
		if isASCIILetter(r) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(runes))
	return hints
}
