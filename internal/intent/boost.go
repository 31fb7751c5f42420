package intent

import (
	"strings"

	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// QueryIntent is the tagged variant the boost router resolves a query to,
// replacing ad-hoc keyword-set lookups at call sites (spec §9 design note:
// "Boost profile selection by keyword presence -> tagged-intent router").
type QueryIntent string

const (
	IntentEsReview QueryIntent = "es_review"
	IntentDeadline QueryIntent = "deadline"
	IntentCulture  QueryIntent = "culture"
	IntentBusiness QueryIntent = "business"
)

// BoostProfile is a per-content-type multiplier table applied to a
// candidate's current primary score (spec §4.9 step 8).
type BoostProfile map[types.ContentType]float64

// boostProfiles holds the four built-in profiles, grounded verbatim on
// original_source's CONTENT_TYPE_BOOSTS table.
var boostProfiles = map[QueryIntent]BoostProfile{
	IntentEsReview: {
		types.ContentTypeNewGradRecruitment: 1.5,
		types.ContentTypeMidcareerRecruit:    1.1,
		types.ContentTypeEmployeeInterviews:  1.1,
		types.ContentTypeCEOMessage:          1.05,
		types.ContentTypeCorporateSite:       1.0,
		types.ContentTypePressRelease:        0.95,
		types.ContentTypeCSRSustainability:   0.9,
		types.ContentTypeMidtermPlan:         0.9,
		types.ContentTypeIRMaterials:         0.85,
	},
	IntentDeadline: {
		types.ContentTypeNewGradRecruitment: 1.6,
		types.ContentTypeMidcareerRecruit:    1.3,
		types.ContentTypePressRelease:        1.2,
		types.ContentTypeCorporateSite:       1.0,
		types.ContentTypeEmployeeInterviews:  0.8,
		types.ContentTypeCEOMessage:          0.7,
		types.ContentTypeCSRSustainability:   0.6,
		types.ContentTypeMidtermPlan:         0.6,
		types.ContentTypeIRMaterials:         0.6,
	},
	IntentCulture: {
		types.ContentTypeEmployeeInterviews: 1.6,
		types.ContentTypeCEOMessage:          1.4,
		types.ContentTypeNewGradRecruitment:  1.3,
		types.ContentTypeCSRSustainability:   1.1,
		types.ContentTypeCorporateSite:       1.0,
		types.ContentTypeMidcareerRecruit:    0.95,
		types.ContentTypePressRelease:        0.8,
		types.ContentTypeMidtermPlan:         0.8,
		types.ContentTypeIRMaterials:         0.7,
	},
	IntentBusiness: {
		types.ContentTypeMidtermPlan:         1.5,
		types.ContentTypeIRMaterials:         1.4,
		types.ContentTypeCorporateSite:       1.3,
		types.ContentTypeCEOMessage:          1.2,
		types.ContentTypePressRelease:        1.1,
		types.ContentTypeCSRSustainability:   1.0,
		types.ContentTypeNewGradRecruitment:  0.9,
		types.ContentTypeEmployeeInterviews:  0.8,
		types.ContentTypeMidcareerRecruit:    0.8,
	},
}

var (
	deadlineKeywords = []string{"締切", "期限", "スケジュール", "選考日程", "応募期間", "エントリー"}
	cultureKeywords  = []string{"社風", "雰囲気", "働き方", "人物像", "カルチャー", "価値観", "チーム"}
	businessKeywords = []string{"事業", "戦略", "売上", "成長", "市場", "競合", "ビジネスモデル", "中期経営"}
)

// ClassifyQueryIntent resolves a free-form query to one of the four
// built-in intents by keyword presence. Checked in order deadline, culture,
// business, defaulting to es_review — matching select_boost_profile's
// literal precedence in the original.
func ClassifyQueryIntent(query string) QueryIntent {
	lower := strings.ToLower(query)
	if containsAny(lower, deadlineKeywords) {
		return IntentDeadline
	}
	if containsAny(lower, cultureKeywords) {
		return IntentCulture
	}
	if containsAny(lower, businessKeywords) {
		return IntentBusiness
	}
	return IntentEsReview
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// SelectBoostProfile resolves a query directly to its boost table,
// composing ClassifyQueryIntent with the profile lookup.
func SelectBoostProfile(query string) BoostProfile {
	return boostProfiles[ClassifyQueryIntent(query)]
}

// Boost returns the multiplier a profile assigns to primary, or 1.0 if the
// content type has no entry (boost is neutral, not a filter).
func (p BoostProfile) Boost(primary types.ContentType) float64 {
	if v, ok := p[NormalizeContentType(primary)]; ok {
		return v
	}
	return 1.0
}

// BestBoost returns the maximum of the primary type's boost and the boosts
// of any secondary types, matching spec §4.9 step 8:
// "Multiply... by max(boost[primary_type], max(boost[secondary_types]))".
func (p BoostProfile) BestBoost(primary types.ContentType, secondary []types.ContentType) float64 {
	best := p.Boost(primary)
	for _, s := range secondary {
		if b := p.Boost(s); b > best {
			best = b
		}
	}
	return best
}
