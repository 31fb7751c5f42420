package registry

import (
	"regexp"
	"strings"
)

// GenericDomainPatterns are segment tokens that are never treated as a
// company identifier by themselves (they appear on nearly every Japanese
// corporate recruitment site), grounded on GENERIC_DOMAIN_PATTERNS.
var GenericDomainPatterns = map[string]struct{}{
	"recruit": {}, "recruitment": {}, "career": {}, "careers": {},
	"job": {}, "jobs": {}, "saiyo": {}, "saiyou": {},
	"entry": {}, "newgrad": {}, "newgrads": {}, "graduate": {},
	"fresh": {}, "freshers": {}, "intern": {}, "internship": {}, "mypage": {},
}

// recruitmentSuffixes are segment suffixes that, appended to a parent
// pattern, denote the parent's own official recruitment site rather than an
// unregistered subsidiary (spec §4.1 "Subsidiary detection", tier 2).
var recruitmentSuffixes = map[string]struct{}{
	"recruit": {}, "saiyo": {}, "career": {}, "careers": {}, "entry": {}, "hiring": {}, "jobs": {}, "job": {}, "graduate": {},
}

var multiSegmentPattern = regexp.MustCompile(`^[^.]+(\.[^.]+)+$`)

// matchDomainPatternRe builds the "(?:^|\.)pattern(?:\.|$)" boundary regex
// used for multi-segment patterns like "bk.mufg".
func matchDomainPatternRe(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\.)` + regexp.QuoteMeta(pattern) + `(?:\.|$)`)
}

// MatchesDomainPattern reports whether pattern p matches domain d, following
// the segment-aware rule from spec §4.1: after lowercasing both and
// splitting d on ".", some segment equals p, starts with p+"-", or ends with
// "-"+p. Multi-segment patterns (containing a dot) additionally match any
// dot-boundary-aligned suffix of d. Never a plain substring match — this
// prevents "mec" from matching "mecyes.co.jp".
func MatchesDomainPattern(domain, pattern string) bool {
	domainLower := strings.ToLower(domain)
	patternLower := strings.ToLower(pattern)

	if multiSegmentPattern.MatchString(patternLower) {
		if domainLower == patternLower {
			return true
		}
		if strings.HasSuffix(domainLower, "."+patternLower) {
			return true
		}
		return matchDomainPatternRe(patternLower).MatchString(domainLower)
	}

	for _, segment := range strings.Split(domainLower, ".") {
		if segment == patternLower {
			return true
		}
		if strings.HasPrefix(segment, patternLower+"-") || strings.HasSuffix(segment, "-"+patternLower) {
			return true
		}
	}
	return false
}

// isShortPattern reports whether a pattern is below the 3-character floor
// that requires an explicit allowlist entry to be usable for matching.
func isShortPattern(pattern string) bool {
	return len([]rune(pattern)) < 3
}
