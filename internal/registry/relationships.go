package registry

import (
	"net/url"
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// extractDomain pulls the lowercased host out of a URL, returning "" on any
// parse failure rather than erroring (spec §4.1 failure semantics).
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// GetCompanyDomainPatterns returns the ranked list of domain patterns a
// company name resolves to: registered mapping entries (exact then
// normalized-name match), the short-domain allowlist, fuzzy containment
// hits against the rest of the mapping table (excluding apparent parent/
// group prefixes), and ASCII-hint extraction from the name itself. Ground
// on get_company_domain_patterns.
func (r *Registry) GetCompanyDomainPatterns(companyName string) []string {
	if cached, ok := r.nameCache.Get(companyName); ok {
		return cached
	}

	mapping, _, _ := r.snapshot()
	var patterns []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	if entry, ok := mapping.Entries[companyName]; ok {
		for _, p := range entry.Domains {
			add(p)
		}
	}

	normalized := NormalizeForLookup(companyName)
	if normalized != companyName {
		if entry, ok := mapping.Entries[normalized]; ok {
			for _, p := range entry.Domains {
				add(p)
			}
		}
	}

	allowPatterns := mapping.ShortDomainAllowlist[companyName]
	if normalized != companyName && len(allowPatterns) == 0 {
		allowPatterns = mapping.ShortDomainAllowlist[normalized]
	}
	for _, p := range allowPatterns {
		add(p)
	}

	for key, entry := range mapping.Entries {
		if key == companyName {
			continue
		}
		if strings.Contains(key, companyName) || strings.Contains(companyName, key) {
			// A short name that prefixes a longer one is typically a
			// parent/group name, not a variant of this company: skip it
			// (e.g. "NTT" is not a pattern source when resolving "NTTデータ").
			if strings.Contains(companyName, key) && len(key) < len(companyName) && strings.HasPrefix(companyName, key) {
				continue
			}
			for _, p := range entry.Domains {
				add(p)
			}
		}
	}

	for _, hint := range extractDomainHints(companyName) {
		isPrefixOfExisting := false
		for _, p := range patterns {
			if strings.HasPrefix(p, hint) && p != hint {
				isPrefixOfExisting = true
				break
			}
		}
		if !isPrefixOfExisting {
			add(hint)
		}
	}

	r.nameCache.Add(companyName, patterns)
	return patterns
}

// GetParentCompany returns the canonical parent name registered for
// companyName, checking an exact key match then a normalized-name match.
func (r *Registry) GetParentCompany(companyName string) (string, bool) {
	mapping, _, _ := r.snapshot()
	if entry, ok := mapping.Entries[companyName]; ok && entry.Parent != "" {
		return entry.Parent, true
	}
	normalized := NormalizeForLookup(companyName)
	if normalized != companyName {
		if entry, ok := mapping.Entries[normalized]; ok && entry.Parent != "" {
			return entry.Parent, true
		}
	}
	return "", false
}

// GetParentDomainPatterns returns the parent company's domain patterns for
// companyName, or nil if companyName has no registered parent.
func (r *Registry) GetParentDomainPatterns(companyName string) []string {
	parent, ok := r.GetParentCompany(companyName)
	if !ok {
		return nil
	}
	return r.GetCompanyDomainPatterns(parent)
}

// GetParentAllowContentTypes returns the set of content types for which the
// parent's domain is also an acceptable source for companyName.
func (r *Registry) GetParentAllowContentTypes(companyName string) map[types.ContentType]struct{} {
	mapping, _, _ := r.snapshot()
	entry, ok := mapping.Entries[companyName]
	if !ok {
		normalized := NormalizeForLookup(companyName)
		entry, ok = mapping.Entries[normalized]
	}
	out := make(map[types.ContentType]struct{})
	if !ok {
		return out
	}
	for _, ct := range entry.AllowParentDomainsFor {
		out[ct] = struct{}{}
	}
	return out
}

// IsParentDomainAllowed reports whether the parent's domain is an
// acceptable source of contentType for companyName.
func (r *Registry) IsParentDomainAllowed(companyName string, contentType types.ContentType) bool {
	if contentType == "" {
		return false
	}
	allowed := r.GetParentAllowContentTypes(companyName)
	_, ok := allowed[intent.NormalizeContentType(contentType)]
	return ok
}

// GetCompanyCandidatesForDomain returns every company name whose registered
// (or allowlisted-short) pattern matches a segment of domain, or a
// hyphen/underscore-split token within a segment, grounded on
// get_company_candidates_for_domain.
func (r *Registry) GetCompanyCandidatesForDomain(domain string) map[string]struct{} {
	_, index, _ := r.snapshot()
	candidates := make(map[string]struct{})
	domainLower := strings.ToLower(domain)

	addFromIndex := func(token string) {
		if _, generic := GenericDomainPatterns[token]; generic {
			return
		}
		for _, name := range index[token] {
			candidates[name] = struct{}{}
		}
	}

	for _, segment := range strings.Split(domainLower, ".") {
		addFromIndex(segment)
		for _, token := range strings.FieldsFunc(segment, func(r rune) bool { return r == '-' || r == '_' }) {
			addFromIndex(token)
		}
	}
	return candidates
}

// GetSubsidiaryCompanies returns every registered company whose Parent
// equals parentName, keyed by subsidiary name, with its domain patterns.
func (r *Registry) GetSubsidiaryCompanies(parentName string) map[string][]string {
	mapping, _, _ := r.snapshot()
	out := make(map[string][]string)
	for name, entry := range mapping.Entries {
		if entry.Parent == parentName {
			out[name] = entry.Domains
		}
	}
	return out
}

// GetSiblingCompanies returns companyName's siblings: the other
// subsidiaries sharing companyName's parent, excluding companyName itself.
func (r *Registry) GetSiblingCompanies(companyName string) map[string][]string {
	parent, ok := r.GetParentCompany(companyName)
	if !ok {
		return map[string][]string{}
	}
	siblings := r.GetSubsidiaryCompanies(parent)
	delete(siblings, companyName)
	return siblings
}

// IsSubsidiaryDomain reports whether url belongs to a subsidiary of
// parentName, via the two-tier algorithm from spec §4.1: a registered
// subsidiary's pattern, or a wildcard "parent_pattern-X" segment not
// otherwise excluded as an official alias, sibling, or recruitment suffix.
func (r *Registry) IsSubsidiaryDomain(rawURL, parentName string) (bool, string) {
	domain := extractDomain(rawURL)
	if domain == "" {
		return false, ""
	}
	segments := strings.Split(domain, ".")

	// Tier 1: registered subsidiary pattern match.
	subsidiaries := r.GetSubsidiaryCompanies(parentName)
	for subName, patterns := range subsidiaries {
		for _, pattern := range patterns {
			if isShortPattern(pattern) {
				continue
			}
			patternLower := lowerASCII(pattern)
			for _, segment := range segments {
				if segment == patternLower {
					return true, subName
				}
				if strings.HasPrefix(segment, patternLower+"-") || strings.HasSuffix(segment, "-"+patternLower) {
					return true, subName
				}
				collapsed := strings.NewReplacer("-", "", "_", "").Replace(segment)
				if len(segment) <= len(patternLower)+10 && strings.Contains(segment, patternLower) &&
					collapsed == strings.NewReplacer("-", "", "_", "").Replace(patternLower) {
					return true, subName
				}
			}
		}
	}

	// Tier 2: wildcard "parent_pattern-X" detection of an unregistered
	// subsidiary.
	parentPatterns := r.GetCompanyDomainPatterns(parentName)
	if len(parentPatterns) == 0 {
		return false, ""
	}

	officialPatterns := make(map[string]struct{})
	for _, p := range parentPatterns {
		if !isShortPattern(p) || r.isAllowlistedShort(p) {
			officialPatterns[lowerASCII(p)] = struct{}{}
		}
	}

	_, patternIndex, _ := r.snapshot()
	hasOtherCompanyPrefix := func(segment string) bool {
		idx := strings.Index(segment, "-")
		if idx < 0 {
			return false
		}
		prefix := segment[:idx]
		if _, ok := officialPatterns[prefix]; ok {
			return false
		}
		return len(patternIndex[prefix]) > 0
	}

	registeredPatterns := make(map[string]struct{})
	for _, patterns := range subsidiaries {
		for _, p := range patterns {
			registeredPatterns[lowerASCII(p)] = struct{}{}
		}
	}

	siblingPatterns := make(map[string]struct{})
	for _, patterns := range r.GetSiblingCompanies(parentName) {
		for _, p := range patterns {
			siblingPatterns[lowerASCII(p)] = struct{}{}
		}
	}

	for _, pattern := range parentPatterns {
		if isShortPattern(pattern) {
			continue
		}
		patternLower := lowerASCII(pattern)

		for _, segment := range segments {
			if _, ok := officialPatterns[segment]; ok && segment != patternLower {
				continue
			}
			skipOfficialAlias := false
			for official := range officialPatterns {
				if official != patternLower && strings.HasPrefix(segment, official+"-") {
					skipOfficialAlias = true
					break
				}
			}
			if skipOfficialAlias {
				continue
			}
			if hasOtherCompanyPrefix(segment) {
				continue
			}
			if !strings.HasPrefix(segment, patternLower+"-") {
				continue
			}
			if segment == patternLower {
				continue
			}
			if _, ok := registeredPatterns[segment]; ok {
				continue
			}
			if _, ok := siblingPatterns[segment]; ok {
				continue
			}
			siblingRelated := false
			for sibPattern := range siblingPatterns {
				if segment == sibPattern || strings.HasPrefix(segment, sibPattern+"-") {
					siblingRelated = true
					break
				}
			}
			if siblingRelated {
				continue
			}
			suffix := segment[len(patternLower)+1:]
			if _, ok := recruitmentSuffixes[suffix]; ok {
				continue
			}
			return true, "未登録子会社 (" + segment + ")"
		}
	}

	return false, ""
}

// IsParentDomain reports whether url is a parent-company domain of
// companyName: it matches one of the parent's patterns with the segment
// rule and does not match any of companyName's own patterns that are not
// registered domains of the parent (spec §4.1 "Parent detection").
func (r *Registry) IsParentDomain(rawURL, companyName string) bool {
	ownPatterns := r.GetCompanyDomainPatterns(companyName)
	parentPatterns := r.GetParentDomainPatterns(companyName)
	if len(parentPatterns) == 0 {
		return false
	}

	domain := extractDomain(rawURL)
	if domain == "" {
		return false
	}

	// Only the parent's registered domains count as shared: the parent's
	// pattern list also picks up companyName's own patterns through name
	// containment, which would leave companyName with no unique pattern.
	mapping, _, _ := r.snapshot()
	parentName, _ := r.GetParentCompany(companyName)
	parentSet := make(map[string]struct{})
	for _, p := range mapping.Entries[parentName].Domains {
		parentSet[p] = struct{}{}
	}

	var ownUnique []string
	for _, p := range ownPatterns {
		if _, sharedWithParent := parentSet[p]; !sharedWithParent {
			ownUnique = append(ownUnique, p)
		}
	}

	for _, pattern := range ownUnique {
		if isShortPattern(pattern) && !r.isAllowlistedShort(pattern) {
			continue
		}
		if MatchesDomainPattern(domain, pattern) {
			return false // companyName's own site, not its parent's.
		}
	}

	for _, pattern := range parentPatterns {
		if isShortPattern(pattern) && !r.isAllowlistedShort(pattern) {
			continue
		}
		if MatchesDomainPattern(domain, pattern) {
			return true
		}
	}
	return false
}

// conflictingCompanies collects every candidate company for domain other
// than companyName and its own parent (spec §4.1 "Conflict detection").
func (r *Registry) conflictingCompanies(domain, companyName string) []string {
	candidates := r.GetCompanyCandidatesForDomain(domain)
	delete(candidates, companyName)
	if parent, ok := r.GetParentCompany(companyName); ok {
		delete(candidates, parent)
	}
	out := make([]string, 0, len(candidates))
	for name := range candidates {
		out = append(out, name)
	}
	return out
}
