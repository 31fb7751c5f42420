package webscore

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/internal/registry"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// Registry is the subset of *registry.Registry the scorer depends on,
// letting tests supply a fake instead of a file-backed registry.
type Registry interface {
	GetCompanyDomainPatterns(companyName string) []string
	Resolve(ctx context.Context, companyName, rawURL string) registry.Verdict
	IsParentDomainAllowed(companyName string, contentType types.ContentType) bool
}

var graduationYearPattern = regexp.MustCompile(`(\d{2})卒|20(\d{2})年卒`)

// Score applies spec §4.7's nine additive factors to in, returning nil when
// the hit is excluded outright (hard exclude, or a strict-mode rejection).
func Score(ctx context.Context, reg Registry, in Input) *Breakdown {
	domain := extractDomain(in.URL)

	if hasInvalidURLShape(in.URL) {
		return nil
	}
	if _, ok := domainMatchesAny(domain, hardExcludeDomains); ok {
		return nil
	}
	if _, ok := domainMatchesAny(domain, pressReleaseAggregators); ok && !in.AllowAggregators {
		return nil
	}

	verdict := reg.Resolve(ctx, in.CompanyName, in.URL)

	sourceType := classifySourceType(domain, verdict)
	b := newBreakdown(sourceType)

	normalizedName := registry.NormalizeForLookup(in.CompanyName)
	nameInTitle := normalizedName != "" && strings.Contains(strings.ToLower(in.Title), strings.ToLower(normalizedName))
	nameInSnippet := normalizedName != "" && strings.Contains(strings.ToLower(in.Snippet), strings.ToLower(normalizedName))
	if nameInTitle {
		b.add("company_name_in_title", 3)
	}
	if nameInSnippet {
		b.add("company_name_in_snippet", 2)
	}

	hasOfficialDomainMatch := verdict.IsOfficial
	if in.StrictCompanyMatch && !nameInTitle && !nameInSnippet && !hasOfficialDomainMatch && !verdict.IsParent {
		return nil
	}

	scoreDomainPatterns(b, reg, in.CompanyName, domain, verdict)
	scoreTLD(b, domain)
	scoreContentType(b, in, domain)
	scoreYearAlignment(b, in)
	scorePenalties(b, domain, in.URL, verdict)
	applyRelationshipAdjustment(b, reg, in.CompanyName, in.ContentType, verdict)
	scorePreferredDomain(b, domain, in.PreferredDomain)

	b.Confidence = confidenceFor(b, sourceType, yearAligned(in))
	return b
}

func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

func classifySourceType(domain string, v registry.Verdict) SourceType {
	switch {
	case v.IsOfficial:
		return SourceOfficial
	case v.IsParent:
		return SourceParent
	case v.IsSubsidiary:
		return SourceSubsidiary
	}
	if _, ok := domainMatchesAny(domain, jobAggregators); ok {
		return SourceJobSite
	}
	if registry.IsBlogPlatform(domain) {
		return SourceBlog
	}
	return SourceOther
}

// scoreDomainPatterns is spec §4.7 factor 3: registry pattern match, ASCII-
// name fallback, recruitment-subdomain match, each mutually exclusive
// (strongest applicable signal only) since they all indicate the same
// underlying fact (this domain belongs to the company).
func scoreDomainPatterns(b *Breakdown, reg Registry, companyName, domain string, v registry.Verdict) {
	if v.IsOfficial {
		b.add("registry_pattern_match", 4)
		return
	}
	if asciiNameInDomain(companyName, domain) {
		b.add("ascii_name_fallback", 3)
		return
	}
	if isRecruitmentSubdomain(domain) {
		b.add("recruitment_subdomain", 3)
	}
}

// asciiNameInDomain extracts ASCII-letter runs of length >= 3 from
// companyName (e.g. the Latin spelling embedded in a katakana brand name)
// and checks whether any appears in domain, grounded on registry's
// extractDomainHints but applied directly against the candidate domain
// rather than through the registered-pattern table.
func asciiNameInDomain(companyName, domain string) bool {
	lowerDomain := strings.ToLower(domain)
	runes := []rune(companyName)
	start := -1
	isASCIILetter := func(r rune) bool { return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') }
	flush := func(end int) bool {
		if start < 0 {
			return false
		}
		run := strings.ToLower(string(runes[start:end]))
		start = -1
		return len([]rune(run)) >= 3 && strings.Contains(lowerDomain, run)
	}
	for i, r := range runes {
		if isASCIILetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if flush(i) {
			return true
		}
	}
	return flush(len(runes))
}

func isRecruitmentSubdomain(domain string) bool {
	segments := strings.Split(strings.ToLower(domain), ".")
	if len(segments) < 2 {
		return false
	}
	_, ok := registry.GenericDomainPatterns[segments[0]]
	return ok
}

func scoreTLD(b *Breakdown, domain string) {
	lower := strings.ToLower(domain)
	switch {
	case strings.HasSuffix(lower, ".co.jp"):
		b.add("tld_quality", 2)
	case strings.HasSuffix(lower, ".jp"):
		b.add("tld_quality", 1.5)
	case strings.HasSuffix(lower, ".com"):
		b.add("tld_quality", 1)
	case strings.HasSuffix(lower, ".net"):
		b.add("tld_quality", 0.5)
	}
	for _, bad := range lowTrustTLDs {
		if strings.HasSuffix(lower, bad) {
			b.add("low_trust_tld", -1)
			break
		}
	}
}

// scoreContentType is spec §4.7 factor 5: the desired content type's
// profile (the single intent.Profiles table shared with C5/C9) scored
// against URL/title/snippet, plus a mismatch penalty when the URL clearly
// belongs to a different content type instead.
func scoreContentType(b *Breakdown, in Input, domain string) {
	desired := intent.NormalizeContentType(in.ContentType)
	if desired == "" {
		return
	}
	profile, ok := intent.Profiles[desired]
	if !ok {
		return
	}

	lowerURL := strings.ToLower(in.URL)
	lowerTitle := strings.ToLower(in.Title)
	lowerSnippet := strings.ToLower(in.Snippet)

	if containsAny(lowerURL, profile.URLPatterns) {
		b.add("content_type_url_match", 2.5)
	}
	if containsAny(lowerTitle, profile.StrongKeywords) || containsAny(lowerTitle, profile.WeakKeywords) {
		b.add("content_type_title_match", 2.0)
	}
	if in.AllowSnippetMatch && (containsAny(lowerSnippet, profile.StrongKeywords) || containsAny(lowerSnippet, profile.WeakKeywords)) {
		b.add("content_type_snippet_match", 1.0)
	}

	for ct, other := range intent.Profiles {
		if ct == desired {
			continue
		}
		if containsAny(lowerURL, other.URLPatterns) {
			b.add("content_type_mismatch", -2.0)
			break
		}
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// yearAligned reports whether in carries no target year (factor disabled)
// or the title/snippet's explicit graduation year, if any, matches it.
func yearAligned(in Input) bool {
	if in.TargetGraduationYear == 0 {
		return true
	}
	matches := graduationYearPattern.FindAllStringSubmatch(in.Title+" "+in.Snippet, -1)
	if len(matches) == 0 {
		return true
	}
	target2digit := in.TargetGraduationYear % 100
	for _, m := range matches {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if yr := atoiSafe(g); yr != 0 && yr != target2digit {
				return false
			}
		}
	}
	return true
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// scoreYearAlignment is spec §4.7 factor 6: a non-target graduation year
// explicitly present in the content costs -2.
func scoreYearAlignment(b *Breakdown, in Input) {
	isRecruitmentType := in.ContentType == types.ContentTypeNewGradRecruitment ||
		in.ContentType == types.ContentTypeMidcareerRecruit ||
		in.ContentType == types.ContentTypeLegacyRecruitment
	if !isRecruitmentType || yearAligned(in) {
		return
	}
	b.add("year_mismatch", -2)
}

// scorePenalties is spec §4.7 factor 7: known aggregators, blog platforms,
// and personal-site URL patterns.
func scorePenalties(b *Breakdown, domain, rawURL string, v registry.Verdict) {
	if _, ok := domainMatchesAny(domain, jobAggregators); ok {
		b.add("job_aggregator_penalty", -2)
	}
	if _, ok := domainMatchesAny(domain, pressReleaseAggregators); ok {
		b.add("press_aggregator_penalty", -3)
	}
	if registry.IsBlogPlatform(domain) {
		if v.IsOfficial {
			b.add("own_blog_penalty", -1)
		} else {
			b.add("blog_platform_penalty", -5)
		}
	}
	if registry.HasPersonalSitePattern(rawURL, domain) {
		b.add("personal_site_penalty", -3)
	}
}

// applyRelationshipAdjustment is spec §4.7 factor 8: a parent or subsidiary
// domain is a weaker signal for this company specifically, scaled down
// unless the parent is an explicitly allowed source for this content type.
func applyRelationshipAdjustment(b *Breakdown, reg Registry, companyName string, ct types.ContentType, v registry.Verdict) {
	switch {
	case v.IsParent:
		if !reg.IsParentDomainAllowed(companyName, ct) {
			b.scale("parent_domain_adjustment", 0.5)
		}
	case v.IsSubsidiary:
		b.scale("subsidiary_domain_adjustment", 0.3)
	}
}

// scorePreferredDomain is spec §4.7 factor 9.
func scorePreferredDomain(b *Breakdown, domain, preferredDomain string) {
	if preferredDomain == "" {
		return
	}
	lowerDomain := strings.ToLower(domain)
	lowerPreferred := strings.ToLower(preferredDomain)
	if lowerDomain == lowerPreferred || strings.HasSuffix(lowerDomain, "."+lowerPreferred) {
		b.add("preferred_domain_match", 3)
		return
	}
	b.add("preferred_domain_miss", -1)
}

// confidenceFor is spec §4.7's "Confidence mapping", applied last: the raw
// additive total maps to a tier, then official-but-year-mismatched and every
// non-official source type caps at medium.
func confidenceFor(b *Breakdown, sourceType SourceType, yearOK bool) Confidence {
	base := ConfidenceLow
	switch {
	case b.Total >= 6:
		base = ConfidenceHigh
	case b.Total >= 3:
		base = ConfidenceMedium
	}

	if sourceType == SourceOfficial && yearOK {
		return base
	}
	if base == ConfidenceHigh {
		return ConfidenceMedium
	}
	return base
}
