// Package intent is the single source of truth for per-content-type
// vocabulary (C6): the nine-label + legacy-alias content-type expansion
// rules and the frozen keyword/URL/exclude profile table consumed by the
// classifier (C5), the web search scorer (C7), and the orchestrator's
// boost-profile router (C9).
package intent

import "github.com/saoki0913/career-compass-retrieval/pkg/types"

// ContentTypesNew is the nine target labels, in the canonical order used
// throughout the corpus (and by CLASSIFY_SCHEMA's enum in the original).
var ContentTypesNew = []types.ContentType{
	types.ContentTypeNewGradRecruitment,
	types.ContentTypeMidcareerRecruit,
	types.ContentTypeCorporateSite,
	types.ContentTypeIRMaterials,
	types.ContentTypeCEOMessage,
	types.ContentTypeEmployeeInterviews,
	types.ContentTypePressRelease,
	types.ContentTypeCSRSustainability,
	types.ContentTypeMidtermPlan,
}

// LegacyToNew maps each legacy alias (plus the migrated
// "recruitment_homepage" spelling) to its current label.
var LegacyToNew = map[types.ContentType]types.ContentType{
	types.ContentTypeLegacyRecruitment:  types.ContentTypeNewGradRecruitment,
	"recruitment_homepage":              types.ContentTypeNewGradRecruitment,
	types.ContentTypeLegacyCorporateIR:  types.ContentTypeIRMaterials,
	types.ContentTypeLegacyCorpBusiness: types.ContentTypeCorporateSite,
	types.ContentTypeLegacyCorpGeneral:  types.ContentTypeCorporateSite,
}

// NewToLegacy maps each current label (and the structured marker) to the
// legacy aliases that should also be admitted when filtering by it.
var NewToLegacy = map[types.ContentType][]types.ContentType{
	types.ContentTypeNewGradRecruitment: {types.ContentTypeLegacyRecruitment},
	types.ContentTypeMidcareerRecruit:    {types.ContentTypeLegacyRecruitment},
	types.ContentTypeEmployeeInterviews: {types.ContentTypeLegacyRecruitment, types.ContentTypeLegacyCorpGeneral},
	types.ContentTypeCorporateSite:       {types.ContentTypeLegacyCorpGeneral, types.ContentTypeLegacyCorpBusiness},
	types.ContentTypeIRMaterials:         {types.ContentTypeLegacyCorporateIR},
	types.ContentTypeMidtermPlan:         {types.ContentTypeLegacyCorporateIR},
	types.ContentTypePressRelease:        {types.ContentTypeLegacyCorpGeneral, types.ContentTypeLegacyCorpBusiness},
	types.ContentTypeCSRSustainability:   {types.ContentTypeLegacyCorpGeneral, types.ContentTypeLegacyCorporateIR},
	types.ContentTypeCEOMessage:          {types.ContentTypeLegacyCorpGeneral},
	types.ContentTypeStructured:          {},
}

// ContentTypeLabels gives the Japanese display label for each content type,
// used by consumers presenting search results to a human.
var ContentTypeLabels = map[types.ContentType]string{
	types.ContentTypeNewGradRecruitment: "新卒採用ホームページ",
	types.ContentTypeMidcareerRecruit:   "中途採用ホームページ",
	types.ContentTypeCorporateSite:      "企業HP",
	types.ContentTypeIRMaterials:        "IR資料",
	types.ContentTypeCEOMessage:         "社長メッセージ",
	types.ContentTypeEmployeeInterviews: "社員インタビュー",
	types.ContentTypePressRelease:       "プレスリリース",
	types.ContentTypeCSRSustainability:  "CSR/サステナ",
	types.ContentTypeMidtermPlan:        "中期経営計画",
	types.ContentTypeStructured:         "構造化データ",
}

// NormalizeContentType maps a legacy content type to its current label,
// returning the input unchanged if it is already current or unknown.
func NormalizeContentType(value types.ContentType) types.ContentType {
	if mapped, ok := LegacyToNew[value]; ok {
		return mapped
	}
	return value
}

// ExpandContentTypeFilter expands a requested content-type filter to admit
// both the new-vocabulary label and its legacy aliases, in both directions,
// preserving input order and de-duplicating (spec §4.3, §6, I2).
func ExpandContentTypeFilter(types_ []types.ContentType) []types.ContentType {
	expanded := make([]types.ContentType, 0, len(types_)*2)
	seen := make(map[types.ContentType]struct{}, len(types_)*2)

	add := func(ct types.ContentType) {
		if ct == "" {
			return
		}
		if _, ok := seen[ct]; ok {
			return
		}
		seen[ct] = struct{}{}
		expanded = append(expanded, ct)
	}

	for _, ct := range types_ {
		add(ct)
		if mapped, ok := LegacyToNew[ct]; ok {
			add(mapped)
		}
		for _, legacy := range NewToLegacy[ct] {
			add(legacy)
		}
		// A legacy alias also admits every new label that lists it.
		for _, label := range ContentTypesNew {
			for _, legacy := range NewToLegacy[label] {
				if legacy == ct {
					add(label)
				}
			}
		}
	}
	return expanded
}

// ContentTypeLabel returns the display label for a content type, handling
// legacy values by normalizing first, and falling back to a generic label
// for anything unrecognized.
func ContentTypeLabel(value types.ContentType) string {
	normalized := NormalizeContentType(value)
	if label, ok := ContentTypeLabels[normalized]; ok {
		return label
	}
	return "企業情報"
}

// MatchesAllowedTypes reports whether chunkType is admitted by an (already
// expanded) allow-set. An empty allow-set admits everything.
func MatchesAllowedTypes(chunkType types.ContentType, allowed []types.ContentType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == chunkType {
			return true
		}
	}
	return false
}
