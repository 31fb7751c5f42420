// Package llmgateway implements the LLM gateway (C11): feature-based model
// routing between Anthropic and OpenAI, per-provider circuit breakers,
// cross-provider fallback on billing/rate-limit/parse failures, and a
// tolerant JSON-response parser. Other packages never call a provider
// directly; they depend on narrow function types (expand.QueryExpansionFunc,
// classify.LLMClassifyFunc, rerank.ScoreFunc) that a caller binds to a
// Gateway method once, at wiring time.
package llmgateway

import "fmt"

// Provider is one upstream LLM vendor.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Model is a caller-facing model alias; Gateway resolves it to a concrete
// provider model name (settings.claude_model, settings.claude_haiku_model,
// settings.openai_model).
type Model string

const (
	ModelClaudeSonnet Model = "claude-sonnet"
	ModelClaudeHaiku  Model = "claude-haiku"
	ModelOpenAI       Model = "openai"
)

func (m Model) provider() Provider {
	if m == ModelClaudeSonnet || m == ModelClaudeHaiku {
		return ProviderAnthropic
	}
	return ProviderOpenAI
}

// Feature names the call site, driving both model selection (Config.Models)
// and the Japanese name used in error messages and logs.
type Feature string

const (
	FeatureESReview          Feature = "es_review"
	FeatureGakuchika         Feature = "gakuchika"
	FeatureMotivation        Feature = "motivation"
	FeatureSelectionSchedule Feature = "selection_schedule"
	FeatureCompanyInfo       Feature = "company_info"
	FeatureRAGQueryExpansion Feature = "rag_query_expansion"
	FeatureRAGHyDE           Feature = "rag_hyde"
	FeatureRAGRerank         Feature = "rag_rerank"
	FeatureRAGClassify       Feature = "rag_classify"
)

// featureNames is the Japanese display name table, used only in error
// messages and logs (spec's Japanese-first UX carries through to
// diagnostics, not just content).
var featureNames = map[Feature]string{
	FeatureESReview:          "ES添削",
	FeatureGakuchika:         "ガクチカ深掘り",
	FeatureMotivation:        "志望動機作成",
	FeatureSelectionSchedule: "選考スケジュール抽出",
	FeatureCompanyInfo:       "企業情報抽出",
	FeatureRAGQueryExpansion: "RAGクエリ拡張",
	FeatureRAGHyDE:           "RAG仮想文書生成",
	FeatureRAGRerank:         "RAG再ランキング",
	FeatureRAGClassify:       "RAGコンテンツ分類",
}

func featureName(f Feature) string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return string(f)
}

// ResponseFormat controls how the provider is asked to shape its output.
type ResponseFormat string

const (
	ResponseFormatJSONObject ResponseFormat = "json_object"
	ResponseFormatJSONSchema ResponseFormat = "json_schema"
	ResponseFormatText       ResponseFormat = "text"
)

// ErrorKind classifies a failed call for the Japanese message table.
type ErrorKind string

const (
	ErrorKindNoAPIKey  ErrorKind = "no_api_key"
	ErrorKindBilling   ErrorKind = "billing"
	ErrorKindRateLimit ErrorKind = "rate_limit"
	ErrorKindInvalid   ErrorKind = "invalid_key"
	ErrorKindNetwork   ErrorKind = "network"
	ErrorKindParse     ErrorKind = "parse"
	ErrorKindUnknown   ErrorKind = "unknown"
)

// CallError is the user-facing and log-facing detail of a failed Call,
// grounded on llm.py's LLMError dataclass.
type CallError struct {
	Kind     ErrorKind
	Message  string // Japanese, safe to surface to an end user
	Detail   string // technical detail, log-only
	Provider Provider
	Feature  Feature
}

func (e *CallError) Error() string {
	return fmt.Sprintf("llmgateway: %s (%s/%s): %s", e.Kind, e.Provider, e.Feature, e.Detail)
}

var errorMessages = map[ErrorKind]func(providerName string) string{
	ErrorKindNoAPIKey: func(p string) string {
		return fmt.Sprintf("APIキーが設定されていません。%sのAPIキーを設定してください。", p)
	},
	ErrorKindBilling: func(p string) string {
		return fmt.Sprintf("%sのクレジット残高が不足しています。APIダッシュボードでクレジットを追加してください。", p)
	},
	ErrorKindRateLimit: func(p string) string {
		return fmt.Sprintf("%sのレート制限に達しました。しばらく待ってから再度お試しください。", p)
	},
	ErrorKindInvalid: func(p string) string {
		return fmt.Sprintf("%sのAPIキーが無効です。正しいAPIキーを設定してください。", p)
	},
	ErrorKindNetwork: func(p string) string {
		return fmt.Sprintf("%sへの接続に失敗しました。ネットワーク接続を確認してください。", p)
	},
	ErrorKindParse: func(string) string {
		return "AIからの応答を解析できませんでした。もう一度お試しください。"
	},
}

func providerDisplayName(p Provider) string {
	if p == ProviderAnthropic {
		return "Claude (Anthropic)"
	}
	return "OpenAI"
}

// newCallError builds a CallError with its Japanese message resolved from
// kind and provider, falling back to a generic feature-scoped message.
func newCallError(kind ErrorKind, provider Provider, feature Feature, detail string) *CallError {
	fn, ok := errorMessages[kind]
	if !ok {
		return &CallError{
			Kind:     ErrorKindUnknown,
			Message:  fmt.Sprintf("%sの処理中にエラーが発生しました。しばらくしてから再度お試しください。", featureName(feature)),
			Detail:   detail,
			Provider: provider,
			Feature:  feature,
		}
	}
	return &CallError{
		Kind:     kind,
		Message:  fn(providerDisplayName(provider)),
		Detail:   detail,
		Provider: provider,
		Feature:  feature,
	}
}

// Request is one Call invocation's parameters.
type Request struct {
	SystemPrompt   string
	UserMessage    string
	Feature        Feature
	Model          Model // zero value resolves from Config.Models[Feature]
	MaxTokens      int
	Temperature    float64
	ResponseFormat ResponseFormat
	JSONSchema     map[string]any

	// RetryOnParse re-asks the same provider with a stricter instruction
	// appended to the system prompt when the first response fails to parse
	// as JSON, before falling back to the other provider.
	RetryOnParse bool

	// DisableFallback suppresses cross-provider fallback entirely, for
	// callers that need a specific provider's behavior (e.g. a feature
	// pinned to one model family).
	DisableFallback bool
}

// Result is a successful Call's parsed JSON body.
type Result struct {
	Data map[string]any
}
