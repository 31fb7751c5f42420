package intent

import "github.com/saoki0913/career-compass-retrieval/pkg/types"

// Profiles is the frozen content-type -> vocabulary table (spec §4.6).
// Every consumer (classifier, web search scorer, boost router) reads from
// this table rather than keeping its own copy of these strings.
var Profiles = map[types.ContentType]types.IntentProfile{
	types.ContentTypeNewGradRecruitment: {
		ContentType: types.ContentTypeNewGradRecruitment,
		StrongKeywords: []string{
			"新卒", "新卒採用", "新卒向け", "新卒向け採用", "新卒採用情報",
			"新卒募集", "卒業予定", "25卒", "26卒", "27卒", "28卒",
			"graduate recruitment", "campus", "early career", "freshers",
		},
		WeakKeywords: []string{"intern", "internship"},
		URLPatterns: []string{
			"newgrad", "shinsotsu", "graduate-recruit", "new-graduate",
			"campus", "early-career", "fresh", "recruit", "recruitment",
			"saiyo", "entry", "mypage",
		},
		ExcludeKeywords: []string{"中途", "キャリア採用", "experienced", "mid-career", "ir", "csr"},
	},
	types.ContentTypeMidcareerRecruit: {
		ContentType: types.ContentTypeMidcareerRecruit,
		StrongKeywords: []string{
			"中途", "中途採用", "中途募集", "キャリア採用", "経験者採用",
			"経験者", "即戦力", "professional", "experienced hire", "job openings",
		},
		WeakKeywords: []string{"experienced", "professional"},
		URLPatterns: []string{
			"mid-career", "midcareer", "experienced", "experienced-hire",
			"professional", "job", "jobs", "join", "opportunities",
		},
		ExcludeKeywords: []string{"新卒", "新卒採用", "graduate", "intern"},
	},
	types.ContentTypeCorporateSite: {
		ContentType: types.ContentTypeCorporateSite,
		StrongKeywords: []string{
			"会社概要", "企業情報", "事業内容", "事業紹介", "沿革", "会社案内",
			"企業理念", "ビジョン", "ミッション", "corporate", "about us",
		},
		WeakKeywords: []string{"ニュース", "お知らせ", "トピックス"},
		URLPatterns: []string{
			"company", "about", "overview", "profile", "business", "corporate",
			"company-info", "about-us", "philosophy", "vision", "topics",
		},
		ExcludeKeywords: []string{"採用", "recruit", "ir", "csr", "サステナ"},
	},
	types.ContentTypeIRMaterials: {
		ContentType: types.ContentTypeIRMaterials,
		StrongKeywords: []string{
			"ir", "投資家情報", "有価証券報告書", "決算短信", "決算説明会",
			"決算説明会資料", "統合報告書", "統合報告", "financial results",
			"earnings", "annual report", "securities report", "form 20-f",
		},
		WeakKeywords: []string{"決算", "株主", "財務", "investor relations"},
		URLPatterns: []string{
			"ir", "investor", "investors", "investor-relations", "ir-library",
			"financial-results", "results", "earnings", "annual-report",
		},
		ExcludeKeywords: genericExclude("採用", "recruit", "csr", "サステナ"),
	},
	types.ContentTypeCEOMessage: {
		ContentType: types.ContentTypeCEOMessage,
		StrongKeywords: []string{
			"社長メッセージ", "社長挨拶", "代表メッセージ", "代表挨拶",
			"ceo message", "president message", "message from ceo", "top message",
		},
		WeakKeywords: []string{"社長", "代表", "ceo", "挨拶"},
		URLPatterns: []string{
			"message", "ceo", "top-message", "leadership", "president", "message-from-ceo",
		},
		ExcludeKeywords: genericExclude("採用", "recruit", "ir", "csr"),
	},
	types.ContentTypeEmployeeInterviews: {
		ContentType: types.ContentTypeEmployeeInterviews,
		StrongKeywords: []string{
			"社員インタビュー", "社員紹介", "社員の声", "社員ブログ", "社員座談会",
			"クロストーク", "座談会", "働き方", "カルチャー", "culture", "employee",
			"staff", "team", "people", "interview", "story",
		},
		WeakKeywords: []string{"社員", "インタビュー", "働く"},
		URLPatterns: []string{
			"interview", "people", "voice", "blog", "stories", "culture",
			"employee", "voices", "staff", "story",
		},
		ExcludeKeywords: genericExclude("ir", "csr", "決算", "有価証券"),
	},
	types.ContentTypePressRelease: {
		ContentType: types.ContentTypePressRelease,
		StrongKeywords: []string{
			"プレスリリース", "ニュースリリース", "報道発表", "報道資料",
			"news release", "media release", "press release",
		},
		WeakKeywords: []string{"リリース", "報道"},
		URLPatterns: []string{
			"press", "press-release", "newsrelease", "release", "newsroom", "pressroom", "media", "pr",
		},
		ExcludeKeywords: genericExclude("採用", "recruit", "ir", "csr"),
	},
	types.ContentTypeCSRSustainability: {
		ContentType: types.ContentTypeCSRSustainability,
		StrongKeywords: []string{
			"csr", "サステナビリティ", "esg", "サステナビリティレポート", "tcfd",
			"sdgs", "esg report", "responsible", "responsibility", "非財務",
		},
		WeakKeywords: []string{"社会貢献", "環境", "持続可能"},
		URLPatterns: []string{
			"csr", "sustainability", "esg", "sdgs", "responsibility",
			"sustainability-report", "environment", "society", "tcfd",
		},
		ExcludeKeywords: genericExclude("採用", "recruit", "ir"),
	},
	types.ContentTypeMidtermPlan: {
		ContentType: types.ContentTypeMidtermPlan,
		StrongKeywords: []string{
			"中期経営計画", "中期計画", "中期経営方針", "中期ビジョン", "中計",
			"medium-term plan", "mid-term plan", "management plan",
		},
		WeakKeywords: []string{"経営計画", "事業計画", "経営戦略", "strategy"},
		URLPatterns: []string{
			"midterm", "medium-term", "medium_term", "management-plan", "mtbp", "strategy", "plan",
		},
		ExcludeKeywords: genericExclude("採用", "recruit", "csr"),
	},
}

// genericExclude appends the shared "not relevant to this content type"
// boilerplate exclusions carried by most profiles in the original (FAQ,
// help/support, store locator, loan-simulation boilerplate that commonly
// pollutes corporate sites) to a profile-specific prefix list.
func genericExclude(prefix ...string) []string {
	shared := []string{
		"faq", "よくある質問", "ヘルプ", "サポート", "お問い合わせ",
		"店舗", "支店", "キャンペーン", "ローン", "シミュレーション",
	}
	return append(append([]string{}, prefix...), shared...)
}

// Get returns the profile for a content type, normalizing legacy aliases
// first. The structured marker has no profile (ok is false).
func Get(ct types.ContentType) (types.IntentProfile, bool) {
	p, ok := Profiles[NormalizeContentType(ct)]
	return p, ok
}

// All returns a defensive copy of the profile table.
func All() map[types.ContentType]types.IntentProfile {
	out := make(map[types.ContentType]types.IntentProfile, len(Profiles))
	for k, v := range Profiles {
		out[k] = v
	}
	return out
}

// AmbiguousTokens are not strong keywords of any profile above because
// their plain presence says nothing about intent without co-occurring
// context ("ニュース" is a corporate_site weak keyword and "message" a
// ceo_message URL pattern); see AmbiguousRules and C5's ambiguity handling.
var AmbiguousTokens = map[string]struct{}{
	"news": {}, "ニュース": {}, "message": {}, "メッセージ": {}, "career": {}, "キャリア": {},
}

// AmbiguousRule describes how to resolve one ambiguous-token family.
type AmbiguousRule struct {
	Tokens       []string
	Context      []string // for message/career: co-occurring tokens that confirm Intent
	PressContext []string // for news only
	IRContext    []string // for news only
	Intent       types.ContentType
	PressIntent  types.ContentType
	IRIntent     types.ContentType
	Fallback     types.ContentType
}

// AmbiguousRules mirrors AMBIGUOUS_RULES: "message" resolves to ceo_message
// only with a CEO/president context token; "news" resolves to press_release
// or ir_materials by context, else corporate_site; "career" resolves to
// midcareer_recruitment only with a recruitment context token (spec §4.5).
var AmbiguousRules = map[string]AmbiguousRule{
	"message": {
		Tokens:  []string{"message", "メッセージ"},
		Context: []string{"ceo", "社長", "代表", "president", "top message", "トップメッセージ", "代表挨拶", "社長挨拶"},
		Intent:  types.ContentTypeCEOMessage,
	},
	"news": {
		Tokens:       []string{"news", "ニュース"},
		PressContext: []string{"press", "release", "media", "プレス", "リリース", "報道"},
		IRContext:    []string{"ir", "investor", "financial", "results", "決算", "投資家", "有価証券"},
		PressIntent:  types.ContentTypePressRelease,
		IRIntent:     types.ContentTypeIRMaterials,
		Fallback:     types.ContentTypeCorporateSite,
	},
	"career": {
		Tokens:  []string{"career", "キャリア"},
		Context: []string{"recruit", "採用", "募集", "job", "opening", "求人", "entry"},
		Intent:  types.ContentTypeMidcareerRecruit,
	},
}
