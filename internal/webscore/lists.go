package webscore

import "strings"

// hardExcludeDomains can never be a legitimate company source regardless of
// keyword overlap: general encyclopedias and social platforms (spec §4.7
// factor 1).
var hardExcludeDomains = []string{
	"wikipedia.org", "wikiwand.com",
	"twitter.com", "x.com", "facebook.com", "instagram.com", "tiktok.com",
	"youtube.com", "youtu.be", "pinterest.com", "threads.net",
}

// pressReleaseAggregators republish press releases without being the
// issuing company's own site; a hit here is excluded, not merely penalized,
// unless allow_aggregators is set (spec §4.7 factor 1, factor 7).
var pressReleaseAggregators = []string{
	"prtimes.jp", "atpress.ne.jp", "value-press.com", "dreamnews.jp",
	"kyodonews.jp/prwire", "value-creation.jp",
}

// jobAggregators are third-party recruitment portals: a real signal of
// "this company recruits" but never the company's own site, so they are
// penalized rather than excluded (spec §4.7 factor 7).
var jobAggregators = []string{
	"rikunabi.com", "mynavi.jp", "en-japan.com", "doda.jp", "type.jp",
	"wantedly.com", "green-japan.com", "indeed.com", "indeed.jp",
	"glassdoor.com", "openwork.jp", "vorkers.com", "forbesjapan.com",
	"onecareer.jp", "gakumado.mynavi.jp",
}

// lowTrustTLDs are generic TLDs strongly overrepresented among throwaway
// and spam sites relative to Japanese corporate sites (spec §4.7 factor 4).
var lowTrustTLDs = []string{".xyz", ".info", ".biz", ".site", ".test", ".click", ".top"}

func domainMatchesAny(domain string, list []string) (string, bool) {
	lower := strings.ToLower(domain)
	for _, d := range list {
		if lower == d || strings.HasSuffix(lower, "."+d) || strings.Contains(lower, d) {
			return d, true
		}
	}
	return "", false
}

func hasInvalidURLShape(rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return true
	}
	return !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://")
}
